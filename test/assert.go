package test

import (
	"testing"

	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
)

// AssertNoLocks fails the test if any transaction holds or waits for a lock.
func AssertNoLocks(t *testing.T, lt *tx.LockTable) {
	t.Helper()
	if n := lt.Len(); n != 0 {
		t.Fatalf("expected an empty lock table. Got %d entries:\n%s", n, lt)
	}
}

// AssertHeld fails the test unless txNum holds key in mode.
func AssertHeld(t *testing.T, lt *tx.LockTable, key types.Lockable, txNum types.TxID, mode tx.LockMode) {
	t.Helper()
	if got := lt.Holders(key)[txNum]; got != mode {
		t.Fatalf("expected tx %d to hold %s in %s. Got %s", txNum, key, mode, got)
	}
}
