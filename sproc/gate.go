package sproc

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/metrics"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

// Gate admits transactions one at a time.
// Within the gate a transaction is numbered and its keys are booked,
// so admission order and transaction number order are the same.
// Locks are acquired outside the gate.
type Gate struct {
	mu      sync.Mutex
	txMgr   *tx.Manager
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewGate(txMgr *tx.Manager, m *metrics.Metrics, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gate{
		txMgr:   txMgr,
		metrics: m,
		logger:  logger.Named("gate"),
	}
}

// Admit creates a serializable transaction and books the keys of the builder
// with its concurrency manager. When booking fails the new transaction is
// rolled back and the error is returned.
func (g *Gate) Admit(readOnly bool, keys *KeySetBuilder) (tx.Transaction, error) {
	if readOnly && keys.HasWrites() {
		return nil, ErrReadOnlyWrite
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	x, err := g.txMgr.NewTransaction(types.IsolationSerializable, readOnly)
	if err != nil {
		return nil, err
	}

	read, write := keys.take()
	if cm, ok := x.ConcurrencyMgr().(*tx.ConservativeConcurrencyManager); ok {
		if err := book(cm, read, write); err != nil {
			if rerr := x.Rollback(); rerr != nil {
				err = errors.CombineErrors(err, rerr)
			}
			return nil, errors.Wrapf(err, "admitting tx %d", x.Number())
		}
	}

	g.metrics.IncAdmission()
	g.logger.Debug("admitted",
		zap.Uint64("tx", uint64(x.Number())),
		zap.Int("read_keys", read.Len()),
		zap.Int("write_keys", write.Len()),
	)

	return x, nil
}

func book(cm *tx.ConservativeConcurrencyManager, read, write *types.LockableSet) error {
	defer cm.SealBooking()

	if err := cm.BookReadKeys(read); err != nil {
		return err
	}
	return cm.BookWriteKeys(write)
}
