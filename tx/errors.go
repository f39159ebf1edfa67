package tx

import "github.com/cockroachdb/errors"

var (
	// ErrLockAbort is returned when a lock request waits longer than the wait budget.
	ErrLockAbort = errors.New("lock abort: wait budget exceeded")

	// ErrBookingClosed is returned when keys are booked after the admission window closed.
	ErrBookingClosed = errors.New("booking is closed for this transaction")

	// ErrTxTerminated is returned by operations on a committed or rolled back transaction.
	ErrTxTerminated = errors.New("transaction already terminated")

	ErrUnsupportedIsolation = errors.New("unsupported isolation level")
)
