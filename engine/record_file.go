package engine

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
)

var _ UpdateScan = (*RecordFile)(nil)

// RecordFile iterates over the records of a table on behalf of a transaction.
// It scans the whole table, or only the records with a given key after SeekKey.
// Every access is announced to the concurrency manager of the transaction
// before it happens, and every change is logged for undo.
type RecordFile struct {
	ti       *TableInfo
	tx       tx.Transaction
	readOnly bool

	key     []types.Constant
	keyRIDs []types.RID
	pos     int

	current *types.RID
	started bool
}

func newRecordFile(ti *TableInfo, x tx.Transaction, readOnly bool) *RecordFile {
	return &RecordFile{
		ti:       ti,
		tx:       x,
		readOnly: readOnly,
	}
}

// SeekKey restricts the file to the records whose key fields equal key,
// given in the order of TableInfo.KeyFields.
func (rf *RecordFile) SeekKey(key []types.Constant) error {
	keyFields := rf.ti.keyFields
	if len(key) != len(keyFields) {
		return errors.Wrapf(ErrBadSemantic, "table %s has %d key fields, got %d values", rf.ti.name, len(keyFields), len(key))
	}

	rf.key = make([]types.Constant, len(key))
	for i, v := range key {
		c, err := rf.ti.schema.cast(keyFields[i], v)
		if err != nil {
			return err
		}
		rf.key[i] = c
	}

	return rf.BeforeFirst()
}

func (rf *RecordFile) BeforeFirst() error {
	rf.current = nil
	rf.started = true
	rf.pos = 0
	rf.keyRIDs = nil

	cm := rf.tx.ConcurrencyMgr()
	if rf.key != nil {
		if err := cm.ReadIndex(rf.ti.t.fileName); err != nil {
			return err
		}
		rf.keyRIDs = rf.ti.t.lookup(rf.key)
		return nil
	}

	return cm.ReadFile(rf.ti.t.fileName)
}

// Next moves to the next record, returning io.EOF past the last one.
func (rf *RecordFile) Next() error {
	if !rf.started {
		if err := rf.BeforeFirst(); err != nil {
			return err
		}
	}

	for {
		rid, ok := rf.nextRID()
		if !ok {
			return io.EOF
		}
		rf.current = &rid

		if err := rf.tx.ConcurrencyMgr().ReadRecord(rid); err != nil {
			return err
		}

		// the record may have been deleted while waiting for its lock
		if rf.ti.t.exists(rid) {
			return nil
		}
	}
}

func (rf *RecordFile) nextRID() (types.RID, bool) {
	if rf.key != nil {
		if rf.pos >= len(rf.keyRIDs) {
			return types.RID{}, false
		}
		rid := rf.keyRIDs[rf.pos]
		rf.pos++
		return rid, true
	}

	return rf.ti.t.next(rf.current)
}

func (rf *RecordFile) HasField(fname string) bool {
	return rf.ti.schema.HasField(fname)
}

func (rf *RecordFile) Val(fname string) (types.Constant, error) {
	if rf.current == nil {
		return types.Constant{}, ErrNoCurrent
	}

	idx, err := rf.ti.schema.index(fname)
	if err != nil {
		return types.Constant{}, err
	}

	v, ok := rf.ti.t.val(*rf.current, idx)
	if !ok {
		return types.Constant{}, errors.Wrapf(ErrRecordDeleted, "%s", *rf.current)
	}
	return v, nil
}

func (rf *RecordFile) CurrentRID() (types.RID, error) {
	if rf.current == nil {
		return types.RID{}, ErrNoCurrent
	}
	return *rf.current, nil
}

// MoveToRID makes rid the current record.
func (rf *RecordFile) MoveToRID(rid types.RID) error {
	if err := rf.tx.ConcurrencyMgr().ReadRecord(rid); err != nil {
		return err
	}

	if !rf.ti.t.exists(rid) {
		return errors.Wrapf(ErrRecordDeleted, "%s", rid)
	}

	rf.started = true
	rf.current = &rid
	return nil
}

func (rf *RecordFile) checkWritable() error {
	if rf.readOnly {
		return errors.Wrapf(ErrReadOnly, "tx %d on %s", rf.tx.Number(), rf.ti.name)
	}
	return nil
}

// SetVal sets the field fname of the current record to v, converted to the field type.
func (rf *RecordFile) SetVal(fname string, v types.Constant) error {
	if err := rf.checkWritable(); err != nil {
		return err
	}

	if rf.current == nil {
		return ErrNoCurrent
	}

	idx, err := rf.ti.schema.index(fname)
	if err != nil {
		return err
	}

	c, err := rf.ti.schema.cast(fname, v)
	if err != nil {
		return err
	}

	t, rid := rf.ti.t, *rf.current
	cm := rf.tx.ConcurrencyMgr()
	if err := cm.ModifyRecord(rid); err != nil {
		return err
	}
	if t.isKey(idx) {
		if err := cm.ModifyIndex(t.fileName); err != nil {
			return err
		}
	}

	t.latch.Lock()
	defer t.latch.Unlock()

	old, ok := t.setVal(rid, idx, c)
	if !ok {
		return errors.Wrapf(ErrRecordDeleted, "%s", rid)
	}
	rf.tx.LogUndo(setValUndo{t: t, rid: rid, idx: idx, old: old})
	return nil
}

// Insert adds a record with zero values and makes it the current record.
func (rf *RecordFile) Insert() error {
	if err := rf.checkWritable(); err != nil {
		return err
	}

	t := rf.ti.t
	rid := t.allocate()

	cm := rf.tx.ConcurrencyMgr()
	if err := cm.InsertBlock(rid.Block); err != nil {
		return err
	}
	if err := cm.ModifyRecord(rid); err != nil {
		return err
	}
	if err := cm.ModifyIndex(t.fileName); err != nil {
		return err
	}

	fields := rf.ti.schema.fields
	r := &row{rid: rid, vals: make([]types.Constant, len(fields))}
	for i, f := range fields {
		r.vals[i] = types.Zero(rf.ti.schema.Type(f))
	}

	t.latch.Lock()
	t.put(r)
	t.latch.Unlock()

	rf.tx.LogUndo(insertUndo{t: t, rid: rid})
	rf.started = true
	rf.current = &rid
	return nil
}

// Delete removes the current record.
// The scan stays positioned on it, so Next moves to the record that followed.
func (rf *RecordFile) Delete() error {
	if err := rf.checkWritable(); err != nil {
		return err
	}

	if rf.current == nil {
		return ErrNoCurrent
	}

	t, rid := rf.ti.t, *rf.current
	cm := rf.tx.ConcurrencyMgr()
	if err := cm.ModifyRecord(rid); err != nil {
		return err
	}
	if err := cm.ModifyIndex(t.fileName); err != nil {
		return err
	}

	t.latch.Lock()
	defer t.latch.Unlock()

	r, ok := t.remove(rid)
	if !ok {
		return errors.Wrapf(ErrRecordDeleted, "%s", rid)
	}
	rf.tx.LogUndo(deleteUndo{t: t, row: r.clone()})
	return nil
}

func (rf *RecordFile) Close() {
	rf.current = nil
	rf.keyRIDs = nil
}
