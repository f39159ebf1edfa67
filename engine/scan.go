package engine

import (
	"io"

	"github.com/luigitni/detdb/types"
)

// Scan represents the output of a relational algebra query.
// Next returns io.EOF once the scan is past its last record.
type Scan interface {
	BeforeFirst() error

	Next() error

	Val(fname string) (types.Constant, error)

	HasField(fname string) bool

	Close()
}

// HasNext advances the scan and reports whether it is on a record.
func HasNext(scan Scan) (bool, error) {
	err := scan.Next()
	if err == nil {
		return true, nil
	}

	if err == io.EOF {
		return false, nil
	}

	return false, err
}

// UpdateScan is a scan whose every output record has a
// corresponding record in an underlying table.
type UpdateScan interface {
	Scan

	SetVal(fname string, v types.Constant) error

	Insert() error

	Delete() error

	CurrentRID() (types.RID, error)

	MoveToRID(rid types.RID) error
}
