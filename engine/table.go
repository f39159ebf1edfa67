package engine

import (
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/luigitni/detdb/types"
)

// SlotsPerBlock is the number of records that share a block number.
// Blocks only exist as lockable identities, rows live in memory.
const SlotsPerBlock = 64

const btreeDegree = 32

type row struct {
	rid  types.RID
	vals []types.Constant
}

func (r *row) Less(than btree.Item) bool {
	return r.rid.Compare(than.(*row).rid) < 0
}

func (r *row) clone() *row {
	vals := make([]types.Constant, len(r.vals))
	copy(vals, r.vals)
	return &row{rid: r.rid, vals: vals}
}

// indexEntry maps the encoded key of a row to its RID.
// Keys are not unique, so entries are ordered by key and then by RID.
type indexEntry struct {
	key string
	rid types.RID
}

func (e indexEntry) Less(than btree.Item) bool {
	o := than.(indexEntry)
	if e.key != o.key {
		return e.key < o.key
	}
	return e.rid.Compare(o.rid) < 0
}

func encodeKey(vals []types.Constant) string {
	var sb strings.Builder
	for _, v := range vals {
		sb.WriteString(v.String())
		sb.WriteByte(0)
	}
	return sb.String()
}

// table stores the rows of a table in RID order,
// together with an index over its key fields.
// The latch protects the in-memory structures only: it is never held
// while waiting for a lock.
type table struct {
	latch    sync.RWMutex
	fileName string
	schema   Schema
	keyIdx   []int

	heap     *btree.BTree
	index    *btree.BTree
	nextSlot int64
}

func newTable(fileName string, schema Schema, keyIdx []int) *table {
	return &table{
		fileName: fileName,
		schema:   schema,
		keyIdx:   keyIdx,
		heap:     btree.New(btreeDegree),
		index:    btree.New(btreeDegree),
	}
}

func (t *table) rowKey(vals []types.Constant) string {
	kv := make([]types.Constant, len(t.keyIdx))
	for i, idx := range t.keyIdx {
		kv[i] = vals[idx]
	}
	return encodeKey(kv)
}

// allocate returns the RID of a new record.
func (t *table) allocate() types.RID {
	t.latch.Lock()
	defer t.latch.Unlock()

	n := t.nextSlot
	t.nextSlot++
	return types.NewRID(types.NewBlock(t.fileName, n/SlotsPerBlock), int(n%SlotsPerBlock))
}

func (t *table) get(rid types.RID) (*row, bool) {
	item := t.heap.Get(&row{rid: rid})
	if item == nil {
		return nil, false
	}
	return item.(*row), true
}

// put stores r and indexes it. Callers hold the write latch.
func (t *table) put(r *row) {
	t.heap.ReplaceOrInsert(r)
	if len(t.keyIdx) > 0 {
		t.index.ReplaceOrInsert(indexEntry{key: t.rowKey(r.vals), rid: r.rid})
	}
}

// remove deletes the row at rid and its index entry. Callers hold the write latch.
func (t *table) remove(rid types.RID) (*row, bool) {
	item := t.heap.Delete(&row{rid: rid})
	if item == nil {
		return nil, false
	}

	r := item.(*row)
	if len(t.keyIdx) > 0 {
		t.index.Delete(indexEntry{key: t.rowKey(r.vals), rid: rid})
	}
	return r, true
}

// setVal sets the value at idx of the row at rid, keeping the index up to date,
// and returns the value it replaced. Callers hold the write latch.
func (t *table) setVal(rid types.RID, idx int, v types.Constant) (types.Constant, bool) {
	r, ok := t.get(rid)
	if !ok {
		return types.Constant{}, false
	}

	old := r.vals[idx]
	if t.isKey(idx) {
		t.index.Delete(indexEntry{key: t.rowKey(r.vals), rid: rid})
		r.vals[idx] = v
		t.index.ReplaceOrInsert(indexEntry{key: t.rowKey(r.vals), rid: rid})
	} else {
		r.vals[idx] = v
	}
	return old, true
}

func (t *table) isKey(idx int) bool {
	for _, k := range t.keyIdx {
		if k == idx {
			return true
		}
	}
	return false
}

// next returns the RID of the first row after rid, or of the first row when from is nil.
func (t *table) next(from *types.RID) (types.RID, bool) {
	t.latch.RLock()
	defer t.latch.RUnlock()

	var (
		out   types.RID
		found bool
	)
	visit := func(i btree.Item) bool {
		r := i.(*row)
		if from != nil && r.rid == *from {
			return true
		}
		out, found = r.rid, true
		return false
	}

	if from == nil {
		t.heap.Ascend(visit)
	} else {
		t.heap.AscendGreaterOrEqual(&row{rid: *from}, visit)
	}
	return out, found
}

// lookup returns the RIDs of the rows whose key fields equal key, in RID order.
func (t *table) lookup(key []types.Constant) []types.RID {
	t.latch.RLock()
	defer t.latch.RUnlock()

	k := encodeKey(key)
	var out []types.RID
	t.index.AscendGreaterOrEqual(indexEntry{key: k}, func(i btree.Item) bool {
		e := i.(indexEntry)
		if e.key != k {
			return false
		}
		out = append(out, e.rid)
		return true
	})
	return out
}

func (t *table) val(rid types.RID, idx int) (types.Constant, bool) {
	t.latch.RLock()
	defer t.latch.RUnlock()

	r, ok := t.get(rid)
	if !ok {
		return types.Constant{}, false
	}
	return r.vals[idx], true
}

func (t *table) exists(rid types.RID) bool {
	t.latch.RLock()
	defer t.latch.RUnlock()

	_, ok := t.get(rid)
	return ok
}

func (t *table) len() int {
	t.latch.RLock()
	defer t.latch.RUnlock()
	return t.heap.Len()
}
