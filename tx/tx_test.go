package tx

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setUndo struct {
	target *int
	old    int
}

func (u setUndo) Undo() error {
	*u.target = u.old
	return nil
}

func (u setUndo) String() string {
	return "set"
}

type failingUndo struct{}

func (failingUndo) Undo() error    { return errors.New("boom") }
func (failingUndo) String() string { return "fail" }

func set(t Transaction, target *int, v int) {
	t.LogUndo(setUndo{target: target, old: *target})
	*target = v
}

func TestManagerNumbersTransactions(t *testing.T) {
	m := NewManager(ModeConservative, newTestLockTable(time.Second), nil)

	for i := types.TxIDStart; i < types.TxIDStart+5; i++ {
		tx, err := m.NewTransaction(types.IsolationSerializable, false)
		require.NoError(t, err)
		assert.Equal(t, i, tx.Number())

		_, ok := tx.ConcurrencyMgr().(*ConservativeConcurrencyManager)
		assert.True(t, ok)
	}

	_, err := m.NewTransaction(types.Isolation(7), false)
	assert.ErrorIs(t, err, ErrUnsupportedIsolation)
}

func TestManagerSerializableMode(t *testing.T) {
	m := NewManager(ModeSerializable, newTestLockTable(time.Second), nil)
	tx, err := m.NewTransaction(types.IsolationSerializable, true)
	require.NoError(t, err)

	_, ok := tx.ConcurrencyMgr().(*SerializableConcurrencyManager)
	assert.True(t, ok)
	assert.True(t, tx.IsReadOnly())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("serializable")
	require.NoError(t, err)
	assert.Equal(t, ModeSerializable, m)

	m, err = ParseMode(ModeConservative.String())
	require.NoError(t, err)
	assert.Equal(t, ModeConservative, m)

	_, err = ParseMode("mvcc")
	assert.Error(t, err)
}

func TestCommitKeepsChanges(t *testing.T) {
	lt := newTestLockTable(time.Second)
	m := NewManager(ModeConservative, lt, nil)
	tx, err := m.NewTransaction(types.IsolationSerializable, false)
	require.NoError(t, err)

	cm := tx.ConcurrencyMgr().(*ConservativeConcurrencyManager)
	require.NoError(t, cm.BookWriteKeys(blocks("warehouse", 1)))
	require.NoError(t, cm.AcquireBookedLocks())

	v := 1
	set(tx, &v, 2)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 2, v)
	assert.Equal(t, StateCommitted, tx.State())
	assert.Zero(t, lt.Len())

	assert.ErrorIs(t, tx.Commit(), ErrTxTerminated)
	assert.ErrorIs(t, tx.Rollback(), ErrTxTerminated)
}

func TestRollbackUndoesNewestFirst(t *testing.T) {
	lt := newTestLockTable(time.Second)
	m := NewManager(ModeConservative, lt, nil)
	tx, err := m.NewTransaction(types.IsolationSerializable, false)
	require.NoError(t, err)

	cm := tx.ConcurrencyMgr().(*ConservativeConcurrencyManager)
	require.NoError(t, cm.BookWriteKeys(blocks("stock", 1, 2)))
	require.NoError(t, cm.AcquireBookedLocks())

	a, b := 10, 20
	set(tx, &a, 11)
	set(tx, &a, 12)
	set(tx, &b, 21)

	require.NoError(t, tx.Rollback())
	assert.Equal(t, 10, a)
	assert.Equal(t, 20, b)
	assert.Equal(t, StateAborted, tx.State())
	assert.Zero(t, lt.Len())

	assert.ErrorIs(t, tx.Rollback(), ErrTxTerminated)
}

func TestRollbackReportsUndoFailures(t *testing.T) {
	m := NewManager(ModeConservative, newTestLockTable(time.Second), nil)
	tx, err := m.NewTransaction(types.IsolationSerializable, false)
	require.NoError(t, err)

	v := 1
	set(tx, &v, 2)
	tx.LogUndo(failingUndo{})

	err = tx.Rollback()
	require.Error(t, err)
	// the walk continues past the failure
	assert.Equal(t, 1, v)
	assert.Equal(t, StateAborted, tx.State())
}
