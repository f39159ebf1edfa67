package types

import "fmt"

// RID is an identifier of the record within a file.
// A RID consists of the block of the file holding the record,
// and the location of the record in that block.
type RID struct {
	Block Block
	Slot  int
}

func NewRID(block Block, slot int) RID {
	return RID{
		Block: block,
		Slot:  slot,
	}
}

func (r RID) Kind() LockableKind {
	return KindRecord
}

func (r RID) Hash() uint64 {
	return combineHash(r.Block.Hash(), uint64(r.Slot))
}

func (r RID) Equals(other Lockable) bool {
	o, ok := other.(RID)
	return ok && r == o
}

func (r RID) Compare(other Lockable) int {
	o, ok := other.(RID)
	if !ok {
		return compareKinds(r, other)
	}
	if c := r.Block.Compare(o.Block); c != 0 {
		return c
	}
	return compareOrdered(int64(r.Slot), int64(o.Slot))
}

func (r RID) String() string {
	return fmt.Sprintf("f:%sn:%ds:%d", r.Block.FileName(), r.Block.Number(), r.Slot)
}
