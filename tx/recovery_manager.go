package tx

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

type txType int8

const (
	START txType = iota
	UPDATE
	COMMIT
	ROLLBACK
)

func (t txType) String() string {
	switch t {
	case START:
		return "START"
	case UPDATE:
		return "UPDATE"
	case COMMIT:
		return "COMMIT"
	case ROLLBACK:
		return "ROLLBACK"
	}
	return fmt.Sprintf("txType(%d)", t)
}

// UndoRecord restores a single change made by a transaction.
type UndoRecord interface {
	Undo() error
	String() string
}

type logRecord struct {
	op    txType
	txNum types.TxID
	undo  UndoRecord
}

func (r logRecord) String() string {
	if r.undo != nil {
		return fmt.Sprintf("<%s %d %s>", r.op, r.txNum, r.undo)
	}
	return fmt.Sprintf("<%s %d>", r.op, r.txNum)
}

// recoveryManager keeps the undo log of a transaction.
// The database is not durable, so the log lives in memory and is
// only used to roll the transaction back.
type recoveryManager struct {
	txNum   types.TxID
	records []logRecord
	logger  *zap.Logger
}

func newRecoveryManagerForTx(txNum types.TxID, logger *zap.Logger) *recoveryManager {
	man := &recoveryManager{
		txNum:  txNum,
		logger: logger,
	}
	man.append(START, nil)
	return man
}

func (man *recoveryManager) append(op txType, undo UndoRecord) {
	man.records = append(man.records, logRecord{op: op, txNum: man.txNum, undo: undo})
}

// logUpdate appends an UPDATE record carrying the undo of a change.
func (man *recoveryManager) logUpdate(undo UndoRecord) {
	man.append(UPDATE, undo)
}

func (man *recoveryManager) commit() {
	man.append(COMMIT, nil)
}

// rollback undoes every change of the transaction, newest first,
// and then appends a ROLLBACK record.
func (man *recoveryManager) rollback() error {
	err := man.doRollback()
	man.append(ROLLBACK, nil)
	return err
}

// doRollback walks the log backwards until the START record, undoing each UPDATE.
// Undo failures are collected and do not stop the walk.
func (man *recoveryManager) doRollback() error {
	var errs error
	for i := len(man.records) - 1; i >= 0; i-- {
		record := man.records[i]
		if record.op == START {
			break
		}

		if record.op != UPDATE {
			continue
		}

		man.logger.Debug("undo", zap.Stringer("record", record))
		if err := record.undo.Undo(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "undoing %s", record))
		}
	}

	return errs
}
