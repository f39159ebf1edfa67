package sproc

import "github.com/cockroachdb/errors"

var (
	// ErrReadOnlyWrite is returned when a read-only procedure declares write keys.
	ErrReadOnlyWrite = errors.New("read-only procedure declares write keys")

	ErrNotPrepared     = errors.New("procedure is not prepared")
	ErrAlreadyPrepared = errors.New("procedure is already prepared")
	ErrAlreadyExecuted = errors.New("procedure was already executed")
)

// ErrNoRows is returned by QueryRow when the query selects nothing.
var ErrNoRows = errors.New("no rows in result set")
