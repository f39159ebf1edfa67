package engine

import "github.com/cockroachdb/errors"

// ErrBadSemantic is returned when a statement does not fit the schema it runs
// against, or when it writes in a read-only transaction.
var ErrBadSemantic = errors.New("bad semantic")

// These refine ErrBadSemantic: errors.Is matches both the refinement and ErrBadSemantic.
var (
	ErrNoField  = errors.Wrap(ErrBadSemantic, "field not found")
	ErrNoTable  = errors.Wrap(ErrBadSemantic, "table not found")
	ErrReadOnly = errors.Wrap(ErrBadSemantic, "write in a read-only scan")
)

var (
	ErrTableExists   = errors.New("table already exists")
	ErrNoCurrent     = errors.New("scan has no current record")
	ErrRecordDeleted = errors.New("record was deleted")
)
