package tx

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type State int32

const (
	StateActive State = iota
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateCommitted:
		return "COMMITTED"
	case StateAborted:
		return "ABORTED"
	}
	return fmt.Sprintf("State(%d)", s)
}

type Transaction interface {
	// Number returns the transaction number, assigned in admission order.
	Number() types.TxID

	IsReadOnly() bool

	Isolation() types.Isolation

	// ConcurrencyMgr returns the concurrency manager of the transaction.
	ConcurrencyMgr() ConcurrencyManager

	State() State

	// LogUndo records how to revert a change the transaction is about to make.
	LogUndo(rec UndoRecord)

	// Commit commits the transaction and releases all its locks.
	// It returns ErrTxTerminated if the transaction already ended.
	Commit() error

	// Rollback undoes every logged change, newest first,
	// and then releases all the locks of the transaction.
	// It returns ErrTxTerminated if the transaction already ended.
	Rollback() error
}

var _ Transaction = (*transactionImpl)(nil)

type transactionImpl struct {
	num        types.TxID
	readOnly   bool
	isolation  types.Isolation
	concMan    ConcurrencyManager
	recoverMan *recoveryManager
	state      *atomic.Int32
	logger     *zap.Logger
}

func newTransaction(num types.TxID, isolation types.Isolation, readOnly bool, concMan ConcurrencyManager, logger *zap.Logger) *transactionImpl {
	return &transactionImpl{
		num:        num,
		readOnly:   readOnly,
		isolation:  isolation,
		concMan:    concMan,
		recoverMan: newRecoveryManagerForTx(num, logger),
		state:      atomic.NewInt32(int32(StateActive)),
		logger:     logger,
	}
}

func (tx *transactionImpl) Number() types.TxID {
	return tx.num
}

func (tx *transactionImpl) IsReadOnly() bool {
	return tx.readOnly
}

func (tx *transactionImpl) Isolation() types.Isolation {
	return tx.isolation
}

func (tx *transactionImpl) ConcurrencyMgr() ConcurrencyManager {
	return tx.concMan
}

func (tx *transactionImpl) State() State {
	return State(tx.state.Load())
}

func (tx *transactionImpl) LogUndo(rec UndoRecord) {
	tx.recoverMan.logUpdate(rec)
}

func (tx *transactionImpl) Commit() error {
	if !tx.state.CAS(int32(StateActive), int32(StateCommitted)) {
		return errors.Wrapf(ErrTxTerminated, "commit of tx %d", tx.num)
	}

	tx.recoverMan.commit()
	tx.concMan.OnTxCommit()

	tx.logger.Debug("tx committed", zap.Uint64("tx", uint64(tx.num)))
	return nil
}

func (tx *transactionImpl) Rollback() error {
	if !tx.state.CAS(int32(StateActive), int32(StateAborted)) {
		return errors.Wrapf(ErrTxTerminated, "rollback of tx %d", tx.num)
	}

	// undo while the locks are still held
	err := tx.recoverMan.rollback()
	tx.concMan.OnTxRollback()

	tx.logger.Debug("tx rolled back", zap.Uint64("tx", uint64(tx.num)))
	if err != nil {
		return errors.Wrapf(err, "rollback of tx %d", tx.num)
	}
	return nil
}

func (tx *transactionImpl) String() string {
	return fmt.Sprintf("tx %d (%s)", tx.num, tx.State())
}
