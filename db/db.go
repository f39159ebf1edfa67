package db

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/metrics"
	"github.com/luigitni/detdb/sproc"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

// DB wires together the components of a database instance.
type DB struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	lockTable *tx.LockTable
	txMgr     *tx.Manager
	catalog   *engine.Catalog
	planner   *engine.Planner
	gate      *sproc.Gate
}

// Open creates an empty database configured by cfg.
func Open(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode, err := tx.ParseMode(cfg.ConcurrencyMode)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	m := metrics.New()
	lt := tx.NewLockTable(cfg.LockWaitBudget.Duration, m, logger)
	txMgr := tx.NewManager(mode, lt, logger)
	catalog := engine.NewCatalog()

	logger.Info("opened database",
		zap.Stringer("mode", mode),
		zap.Duration("lock_wait_budget", cfg.LockWaitBudget.Duration),
	)

	return &DB{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		lockTable: lt,
		txMgr:     txMgr,
		catalog:   catalog,
		planner:   engine.NewPlanner(catalog),
		gate:      sproc.NewGate(txMgr, m, logger),
	}, nil
}

// Env returns the environment stored procedures run in.
func (db *DB) Env() *sproc.Env {
	return &sproc.Env{
		TxMgr:   db.txMgr,
		Gate:    db.gate,
		Planner: db.planner,
		Catalog: db.catalog,
		Metrics: db.metrics,
		Logger:  db.logger,
	}
}

func (db *DB) Config() *config.Config {
	return db.cfg
}

func (db *DB) Logger() *zap.Logger {
	return db.logger
}

func (db *DB) Metrics() *metrics.Metrics {
	return db.metrics
}

func (db *DB) LockTable() *tx.LockTable {
	return db.lockTable
}

func (db *DB) Catalog() *engine.Catalog {
	return db.catalog
}

func (db *DB) Planner() *engine.Planner {
	return db.planner
}

// Begin starts a transaction outside the admission gate.
// In conservative mode such a transaction holds no locks, so it must only
// run while no procedure does, for example while loading data.
func (db *DB) Begin(readOnly bool) (tx.Transaction, error) {
	return db.txMgr.NewTransaction(types.IsolationSerializable, readOnly)
}

// Exec runs a single statement in its own transaction, with the same
// caveats as Begin.
func (db *DB) Exec(cmd sql.Command) (fmt.Stringer, error) {
	switch c := cmd.(type) {
	case sql.Query:
		return db.runQuery(c)
	default:
		return db.execDML(cmd)
	}
}

func (db *DB) runQuery(q sql.Query) (Rows, error) {
	x, err := db.Begin(true)
	if err != nil {
		return Rows{}, err
	}

	run := func() (Rows, error) {
		scan, err := db.planner.ExecuteQuery(q, x)
		if err != nil {
			return Rows{}, err
		}
		defer scan.Close()

		var rows Rows

		rows.cols = append(rows.cols, q.Fields()...)

		for {
			err := scan.Next()
			if err == io.EOF {
				break
			}

			if err != nil {
				return Rows{}, err
			}

			row := Row{}
			for _, f := range q.Fields() {
				v, err := scan.Val(f)
				if err != nil {
					return Rows{}, err
				}
				row.vals = append(row.vals, v)
			}

			rows.rows = append(rows.rows, row)
		}

		return rows, nil
	}

	rows, err := run()
	if err != nil {
		return Rows{}, errors.CombineErrors(err, x.Rollback())
	}

	return rows, x.Commit()
}

func (db *DB) execDML(cmd sql.Command) (Result, error) {
	x, err := db.Begin(false)
	if err != nil {
		return Result{}, err
	}

	res, err := db.planner.ExecuteUpdate(cmd, x)
	if err != nil {
		return Result{}, errors.CombineErrors(err, x.Rollback())
	}

	return Result{res}, x.Commit()
}

// Close flushes the logger.
func (db *DB) Close() error {
	// Sync of a console sink fails on some platforms
	_ = db.logger.Sync()
	return nil
}
