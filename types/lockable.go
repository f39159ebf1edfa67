package types

import (
	"fmt"
	"sort"
)

type LockableKind int8

// Kinds are listed in acquisition order.
const (
	KindBlock LockableKind = iota
	KindRecord
	KindPrimaryKey
)

// Lockable is an identity that can key the lock table.
// Hash must be consistent with Equals, and Compare must be a total order
// that is consistent with Equals across every Lockable kind.
type Lockable interface {
	fmt.Stringer
	Kind() LockableKind
	Hash() uint64
	Equals(other Lockable) bool
	Compare(other Lockable) int
}

func compareKinds(a, b Lockable) int {
	return compareOrdered(int64(a.Kind()), int64(b.Kind()))
}

func combineHash(h uint64, v uint64) uint64 {
	return 31*h + v
}

// SortLockables sorts the keys in their total order.
func SortLockables(keys []Lockable) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
}

// LockableSet is a set of Lockables bucketed by their hash.
// The zero value is an empty set ready to use.
type LockableSet struct {
	buckets map[uint64][]Lockable
	size    int
}

func NewLockableSet(keys ...Lockable) *LockableSet {
	s := &LockableSet{}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts the key, returning false if an equal key was already present.
func (s *LockableSet) Add(key Lockable) bool {
	if s.buckets == nil {
		s.buckets = make(map[uint64][]Lockable)
	}

	h := key.Hash()
	for _, k := range s.buckets[h] {
		if k.Equals(key) {
			return false
		}
	}

	s.buckets[h] = append(s.buckets[h], key)
	s.size++
	return true
}

func (s *LockableSet) AddAll(other *LockableSet) {
	if other == nil {
		return
	}
	for _, bucket := range other.buckets {
		for _, k := range bucket {
			s.Add(k)
		}
	}
}

func (s *LockableSet) Contains(key Lockable) bool {
	if s == nil {
		return false
	}
	for _, k := range s.buckets[key.Hash()] {
		if k.Equals(key) {
			return true
		}
	}
	return false
}

func (s *LockableSet) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Sorted returns the keys of the set in their total order.
func (s *LockableSet) Sorted() []Lockable {
	if s == nil {
		return nil
	}

	out := make([]Lockable, 0, s.size)
	for _, bucket := range s.buckets {
		out = append(out, bucket...)
	}
	SortLockables(out)
	return out
}

func (s *LockableSet) Clone() *LockableSet {
	c := &LockableSet{}
	c.AddAll(s)
	return c
}
