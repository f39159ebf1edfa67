package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockableOrderAcrossKinds(t *testing.T) {
	blk := NewBlock("item.tbl", 3)
	rid := NewRID(NewBlock("item.tbl", 0), 1)

	assert.Negative(t, blk.Compare(rid))
	assert.Positive(t, rid.Compare(blk))
	assert.Zero(t, rid.Compare(NewRID(NewBlock("item.tbl", 0), 1)))
}

func TestRIDOrder(t *testing.T) {
	keys := []Lockable{
		NewRID(NewBlock("b", 0), 2),
		NewRID(NewBlock("a", 1), 0),
		NewRID(NewBlock("a", 0), 9),
		NewRID(NewBlock("b", 0), 1),
	}

	SortLockables(keys)

	assert.Equal(t, []Lockable{
		NewRID(NewBlock("a", 0), 9),
		NewRID(NewBlock("a", 1), 0),
		NewRID(NewBlock("b", 0), 1),
		NewRID(NewBlock("b", 0), 2),
	}, keys)
}

func TestLockableSet(t *testing.T) {
	s := NewLockableSet()

	assert.True(t, s.Add(NewRID(NewBlock("f", 0), 1)))
	assert.False(t, s.Add(NewRID(NewBlock("f", 0), 1)))
	assert.True(t, s.Add(FileBlock("f")))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Contains(NewRID(NewBlock("f", 0), 1)))
	assert.False(t, s.Contains(NewRID(NewBlock("f", 0), 2)))

	sorted := s.Sorted()
	assert.Equal(t, FileBlock("f"), sorted[0])

	c := s.Clone()
	c.Add(NewBlock("g", 0))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, c.Len())
}

func TestNilLockableSet(t *testing.T) {
	var s *LockableSet
	assert.Zero(t, s.Len())
	assert.False(t, s.Contains(NewBlock("f", 0)))
	assert.Empty(t, s.Sorted())
}
