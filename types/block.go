package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EOF is the number of the sentinel block used to lock a whole file.
const EOF = int64(math.MaxInt64)

// Block identifies a block of a file.
type Block struct {
	filename string
	number   int64
}

func NewBlock(filename string, number int64) Block {
	return Block{
		filename: filename,
		number:   number,
	}
}

// FileBlock returns the end-of-file block of the given file.
// Locking it stands for locking the file.
func FileBlock(filename string) Block {
	return NewBlock(filename, EOF)
}

func (bid Block) FileName() string {
	return bid.filename
}

func (bid Block) Number() int64 {
	return bid.number
}

func (bid Block) Kind() LockableKind {
	return KindBlock
}

func (bid Block) Hash() uint64 {
	return combineHash(xxhash.Sum64String(bid.filename), uint64(bid.number))
}

func (bid Block) Equals(other Lockable) bool {
	o, ok := other.(Block)
	return ok && bid == o
}

func (bid Block) Compare(other Lockable) int {
	o, ok := other.(Block)
	if !ok {
		return compareKinds(bid, other)
	}
	if c := strings.Compare(bid.filename, o.filename); c != 0 {
		return c
	}
	return compareOrdered(bid.number, o.number)
}

func (bid Block) String() string {
	if bid.number == EOF {
		return fmt.Sprintf("file %q eof", bid.filename)
	}
	return fmt.Sprintf("file %q block %d", bid.filename, bid.number)
}
