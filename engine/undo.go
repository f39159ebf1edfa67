package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
)

// setValUndo restores the previous value of a field.
type setValUndo struct {
	t   *table
	rid types.RID
	idx int
	old types.Constant
}

func (u setValUndo) Undo() error {
	u.t.latch.Lock()
	defer u.t.latch.Unlock()

	if _, ok := u.t.setVal(u.rid, u.idx, u.old); !ok {
		return errors.Wrapf(ErrRecordDeleted, "restoring %s of %s", u.t.schema.fields[u.idx], u.rid)
	}
	return nil
}

func (u setValUndo) String() string {
	return fmt.Sprintf("SETVAL %s %s %s", u.rid, u.t.schema.fields[u.idx], u.old)
}

// insertUndo removes an inserted record.
type insertUndo struct {
	t   *table
	rid types.RID
}

func (u insertUndo) Undo() error {
	u.t.latch.Lock()
	defer u.t.latch.Unlock()

	if _, ok := u.t.remove(u.rid); !ok {
		return errors.Wrapf(ErrRecordDeleted, "removing inserted %s", u.rid)
	}
	return nil
}

func (u insertUndo) String() string {
	return fmt.Sprintf("INSERT %s", u.rid)
}

// deleteUndo puts a deleted record back.
type deleteUndo struct {
	t   *table
	row *row
}

func (u deleteUndo) Undo() error {
	u.t.latch.Lock()
	defer u.t.latch.Unlock()

	u.t.put(u.row)
	return nil
}

func (u deleteUndo) String() string {
	return fmt.Sprintf("DELETE %s", u.row.rid)
}
