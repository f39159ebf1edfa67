package db

import (
	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
)

const defaultLoadBatch = 1000

// Loader inserts rows in batches, each batch in its own transaction.
// Like Begin, it must not run while procedures do.
type Loader struct {
	db    *DB
	batch int

	tx      tx.Transaction
	pending int
	total   int
}

// NewLoader returns a loader committing every batch rows.
// A non positive batch selects the default.
func (db *DB) NewLoader(batch int) *Loader {
	if batch <= 0 {
		batch = defaultLoadBatch
	}
	return &Loader{db: db, batch: batch}
}

// Insert adds a row. If the insert fails, the rows of the current batch
// are rolled back.
func (l *Loader) Insert(cmd sql.InsertCommand) error {
	if l.tx == nil {
		x, err := l.db.Begin(false)
		if err != nil {
			return err
		}
		l.tx = x
	}

	if _, err := l.db.planner.ExecuteUpdate(cmd, l.tx); err != nil {
		err = errors.CombineErrors(err, l.tx.Rollback())
		l.tx = nil
		l.pending = 0
		return errors.Wrapf(err, "loading %s", cmd.TableName)
	}

	l.pending++
	if l.pending >= l.batch {
		return l.Flush()
	}
	return nil
}

// Flush commits the current batch.
func (l *Loader) Flush() error {
	if l.tx == nil {
		return nil
	}

	err := l.tx.Commit()
	l.total += l.pending
	l.tx = nil
	l.pending = 0
	return err
}

// Loaded returns the number of committed rows.
func (l *Loader) Loaded() int {
	return l.total
}
