package sproc

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/metrics"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
	"go.uber.org/zap"
)

// ParamHelper binds the parameters of a procedure and describes its output.
type ParamHelper interface {
	PrepareParameters(params ...any) error
	IsReadOnly() bool
	ResultSetSchema() engine.Schema
	NewResultSetRecord() Record
}

// Hooks are the two parts of a procedure.
// PrepareKeys declares the keys the procedure reads and writes.
// ExecuteSQL runs the body once every declared key is locked.
type Hooks struct {
	PrepareKeys func(keys *KeySetBuilder) error
	ExecuteSQL  func(sp *StoredProcedure) (Outcome, error)
}

// Env holds the components procedures run against.
type Env struct {
	TxMgr   *tx.Manager
	Gate    *Gate
	Planner *engine.Planner
	Catalog *engine.Catalog
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// StoredProcedure runs a procedure in two steps. Prepare binds the
// parameters, collects the keys and admits a transaction through the gate.
// Execute locks the keys, runs the body and commits, or rolls back if the
// body aborts or fails. A StoredProcedure is used by one goroutine and runs once.
type StoredProcedure struct {
	env    *Env
	name   string
	helper ParamHelper
	hooks  Hooks
	logger *zap.Logger

	tx       tx.Transaction
	executed bool
}

func New(env *Env, name string, helper ParamHelper, hooks Hooks) *StoredProcedure {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StoredProcedure{
		env:    env,
		name:   name,
		helper: helper,
		hooks:  hooks,
		logger: logger.Named("sproc").With(zap.String("procedure", name)),
	}
}

func (sp *StoredProcedure) Name() string {
	return sp.name
}

func (sp *StoredProcedure) ParamHelper() ParamHelper {
	return sp.helper
}

// Transaction returns the transaction admitted by Prepare.
func (sp *StoredProcedure) Transaction() tx.Transaction {
	return sp.tx
}

// Prepare binds params, collects the keys of the procedure and admits its transaction.
// No transaction exists when Prepare fails.
func (sp *StoredProcedure) Prepare(params ...any) error {
	if sp.tx != nil {
		return ErrAlreadyPrepared
	}

	if err := sp.helper.PrepareParameters(params...); err != nil {
		return errors.Wrapf(err, "binding parameters of %s", sp.name)
	}

	keys := NewKeySetBuilder()
	if sp.hooks.PrepareKeys != nil {
		if err := sp.hooks.PrepareKeys(keys); err != nil {
			return errors.Wrapf(err, "preparing keys of %s", sp.name)
		}
	}

	x, err := sp.env.Gate.Admit(sp.helper.IsReadOnly(), keys)
	if err != nil {
		return errors.Wrapf(err, "admitting %s", sp.name)
	}

	sp.tx = x
	return nil
}

// Execute runs the prepared procedure. Errors never escape: the returned
// ResultSet tells whether the transaction committed.
func (sp *StoredProcedure) Execute() *ResultSet {
	rs := &ResultSet{
		schema: sp.helper.ResultSetSchema(),
	}

	switch {
	case sp.tx == nil:
		rs.reason = ErrNotPrepared.Error()
		return rs
	case sp.executed:
		rs.reason = ErrAlreadyExecuted.Error()
		return rs
	}
	sp.executed = true

	start := time.Now()
	logger := sp.logger.With(zap.Uint64("tx", uint64(sp.tx.Number())))

	outcome, err := sp.run()

	result := metrics.OutcomeCommitted
	switch {
	case err == nil && !outcome.IsAbort():
		if cerr := sp.tx.Commit(); cerr != nil {
			logger.Error("commit failed", zap.Error(cerr))
			rs.reason = cerr.Error()
			result = metrics.OutcomeFailed
			break
		}
		rs.committed = true
	case err == nil:
		logger.Warn("procedure aborted", zap.String("reason", outcome.Reason()))
		rs.reason = outcome.Reason()
		result = metrics.OutcomeAborted
	case errors.Is(err, tx.ErrLockAbort):
		logger.Warn("lock abort", zap.Error(err))
		rs.reason = err.Error()
		result = metrics.OutcomeLockAbort
	case errors.Is(err, engine.ErrBadSemantic):
		logger.Error("bad semantic", zap.Error(err))
		rs.reason = err.Error()
		result = metrics.OutcomeFailed
	default:
		logger.Error("procedure failed", zap.Error(err), zap.String("detail", fmt.Sprintf("%+v", err)))
		rs.reason = err.Error()
		result = metrics.OutcomeFailed
	}

	if !rs.committed {
		if rerr := sp.tx.Rollback(); rerr != nil {
			logger.Error("rollback failed", zap.Error(rerr))
		}
	} else {
		rs.record = sp.helper.NewResultSetRecord()
	}

	sp.env.Metrics.ObserveTx(sp.name, result, time.Since(start))
	return rs
}

// run locks the booked keys and runs the body, turning a panic into an error.
func (sp *StoredProcedure) run() (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic in %s: %v", sp.name, r)
		}
	}()

	if cm, ok := sp.tx.ConcurrencyMgr().(*tx.ConservativeConcurrencyManager); ok {
		if err := cm.AcquireBookedLocks(); err != nil {
			return Outcome{}, err
		}
	}

	if sp.hooks.ExecuteSQL == nil {
		return Ok(), nil
	}
	return sp.hooks.ExecuteSQL(sp)
}

// Query runs q in the transaction of the procedure.
func (sp *StoredProcedure) Query(q sql.Query) (engine.Scan, error) {
	return sp.env.Planner.ExecuteQuery(q, sp.tx)
}

// Update runs cmd in the transaction of the procedure and returns the number of affected records.
func (sp *StoredProcedure) Update(cmd sql.Command) (int, error) {
	return sp.env.Planner.ExecuteUpdate(cmd, sp.tx)
}

// QueryRow runs q and returns the values of fields in its first record.
// It returns ErrNoRows when q selects nothing.
func (sp *StoredProcedure) QueryRow(q sql.Query) (Record, error) {
	s, err := sp.Query(q)
	if err != nil {
		return Record{}, err
	}
	defer s.Close()

	ok, err := engine.HasNext(s)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, errors.Wrapf(ErrNoRows, "%s", q)
	}

	rec := NewRecord()
	for _, f := range q.Fields() {
		v, err := s.Val(f)
		if err != nil {
			return Record{}, err
		}
		rec.Set(f, v)
	}
	return rec, nil
}
