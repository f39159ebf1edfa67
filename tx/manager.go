package tx

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Mode selects the concurrency protocol of the transactions a Manager creates.
type Mode int8

const (
	ModeConservative Mode = iota
	ModeSerializable
)

func (m Mode) String() string {
	switch m {
	case ModeConservative:
		return "conservative"
	case ModeSerializable:
		return "serializable"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "conservative":
		return ModeConservative, nil
	case "serializable":
		return ModeSerializable, nil
	}
	return 0, errors.Newf("unknown concurrency mode %q", s)
}

// Manager creates transactions and numbers them.
type Manager struct {
	mode      Mode
	lockTable *LockTable
	nextTxNum *atomic.Uint64
	logger    *zap.Logger
}

func NewManager(mode Mode, lt *LockTable, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		mode:      mode,
		lockTable: lt,
		nextTxNum: atomic.NewUint64(uint64(types.TxIDStart) - 1),
		logger:    logger.Named("tx"),
	}
}

func (m *Manager) Mode() Mode {
	return m.mode
}

func (m *Manager) LockTable() *LockTable {
	return m.lockTable
}

// NewTransaction creates a transaction with the next transaction number.
// In conservative mode the concurrency manager of the transaction is always
// a *ConservativeConcurrencyManager.
func (m *Manager) NewTransaction(isolation types.Isolation, readOnly bool) (Transaction, error) {
	if isolation != types.IsolationSerializable {
		return nil, errors.Wrapf(ErrUnsupportedIsolation, "%s", isolation)
	}

	num := types.TxID(m.nextTxNum.Inc())

	var cm ConcurrencyManager
	switch m.mode {
	case ModeConservative:
		cm = NewConservativeConcurrencyManager(num, m.lockTable)
	case ModeSerializable:
		cm = NewSerializableConcurrencyManager(num, m.lockTable)
	default:
		return nil, errors.AssertionFailedf("unknown concurrency mode %d", m.mode)
	}

	m.logger.Debug("new tx",
		zap.Uint64("tx", uint64(num)),
		zap.Bool("read_only", readOnly),
		zap.Stringer("mode", m.mode),
	)

	return newTransaction(num, isolation, readOnly, cm, m.logger), nil
}
