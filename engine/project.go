package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
)

// Project is a relational algebra operator.
// Project returns a table that has the same rows
// of its input table, but with some columns removed.
type Project struct {
	scan Scan
	// fields is the list of output fields.
	fields map[string]struct{}
}

func newProjectScan(scan Scan, fields []string) Project {
	m := make(map[string]struct{})
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return Project{
		scan:   scan,
		fields: m,
	}
}

func (project Project) HasField(fname string) bool {
	_, ok := project.fields[fname]
	return ok
}

func (project Project) BeforeFirst() error {
	return project.scan.BeforeFirst()
}

func (project Project) Close() {
	project.scan.Close()
}

// Val returns the value of fname if the projection includes it,
// and an ErrNoField error otherwise.
func (project Project) Val(fname string) (types.Constant, error) {
	if !project.HasField(fname) {
		return types.Constant{}, errors.Wrapf(ErrNoField, "%s is not projected", fname)
	}
	return project.scan.Val(fname)
}

func (project Project) Next() error {
	return project.scan.Next()
}
