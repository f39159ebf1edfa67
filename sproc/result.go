package sproc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/types"
)

// Record is the output row of a procedure.
type Record struct {
	vals map[string]types.Constant
}

func NewRecord() Record {
	return Record{vals: make(map[string]types.Constant)}
}

func (r Record) Set(fname string, v types.Constant) {
	r.vals[fname] = v
}

func (r Record) Val(fname string) (types.Constant, bool) {
	v, ok := r.vals[fname]
	return v, ok
}

func (r Record) String() string {
	names := make([]string, 0, len(r.vals))
	for n := range r.vals {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, r.vals[n])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ResultSet is what a procedure execution returns to its caller.
type ResultSet struct {
	committed bool
	schema    engine.Schema
	record    Record
	reason    string
}

func (rs *ResultSet) IsCommitted() bool {
	return rs.committed
}

func (rs *ResultSet) Schema() engine.Schema {
	return rs.schema
}

func (rs *ResultSet) Record() Record {
	return rs.record
}

// AbortReason describes why the transaction did not commit.
func (rs *ResultSet) AbortReason() string {
	return rs.reason
}
