package engine

import (
	"io"

	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/types"
)

// Select is a relational algebra operator.
// Select returns a table that has the same
// columns of its input table but with some rows removed.
// Iterating through a Select scan accesses exactly the same records as the underlying scan.
type Select struct {
	scan Scan
	// predicate corresponds to the WHERE clause
	predicate sql.Predicate
}

func newSelectScan(scan Scan, pred sql.Predicate) *Select {
	return &Select{
		scan:      scan,
		predicate: pred,
	}
}

func (sel *Select) BeforeFirst() error {
	return sel.scan.BeforeFirst()
}

func (sel *Select) Close() {
	sel.scan.Close()
}

func (sel *Select) Val(fname string) (types.Constant, error) {
	return sel.scan.Val(fname)
}

func (sel *Select) HasField(fname string) bool {
	return sel.scan.HasField(fname)
}

// Next loops through the underlying scan looking
// for a record that satisfies the predicate.
// If such record is found, then it becomes the current record,
// otherwise the method returns io.EOF
func (sel *Select) Next() error {
	for {
		err := sel.scan.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		ok, err := sel.predicate.IsSatisfied(sel.scan)
		if err != nil {
			return err
		}

		if ok {
			return nil
		}
	}

	return io.EOF
}
