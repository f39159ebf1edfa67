package tx

import (
	"sync"
	"testing"
	"time"

	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func newTestLockTable(budget time.Duration) *LockTable {
	return NewLockTable(budget, nil, nil)
}

func TestLockTableSharedLocks(t *testing.T) {
	lt := newTestLockTable(time.Second)
	block := types.NewBlock("test", 1)

	// no wait happens when all clients request S locks
	for i := 1; i <= 100; i++ {
		require.NoError(t, lt.SLock(block, types.TxID(i)))
	}
	assert.Len(t, lt.Holders(block), 100)

	for i := 1; i <= 100; i++ {
		lt.ReleaseAll(types.TxID(i), false)
	}
	assert.Zero(t, lt.Len())

	require.NoError(t, lt.XLock(block, 101))
	assert.Equal(t, map[types.TxID]LockMode{101: LockModeExclusive}, lt.Holders(block))
}

func TestLockTableReentrantAndUpgrade(t *testing.T) {
	lt := newTestLockTable(time.Second)
	rid := types.NewRID(types.NewBlock("item.tbl", 0), 3)

	require.NoError(t, lt.SLock(rid, 1))
	require.NoError(t, lt.SLock(rid, 1))
	// sole holder upgrades at once
	require.NoError(t, lt.XLock(rid, 1))
	// S under own X is already covered
	require.NoError(t, lt.SLock(rid, 1))

	assert.Equal(t, LockModeExclusive, lt.Holders(rid)[1])
	assert.Equal(t, []types.Lockable{rid}, lt.HeldBy(1))
}

// 100 S holders, an X request submitted midway, 50 S requests after it.
// The X request waits for every earlier S holder and the later S requests
// wait behind it.
func TestLockTableFIFO(t *testing.T) {
	lt := newTestLockTable(10 * time.Second)
	key := types.NewBlock("district.tbl", 0)
	const xTx = types.TxID(1 << 40)

	for i := 1; i <= 50; i++ {
		require.NoError(t, lt.SLock(key, types.TxID(i)))
	}

	xGranted := make(chan error, 1)
	go func() {
		xGranted <- lt.XLock(key, xTx)
	}()
	require.Eventually(t, func() bool {
		return len(lt.Waiters(key)) == 1
	}, waitFor, tick)

	var wg sync.WaitGroup
	sGranted := make(chan types.TxID, 50)
	for i := 51; i <= 100; i++ {
		wg.Add(1)
		go func(num types.TxID) {
			defer wg.Done()
			if err := lt.SLock(key, num); err == nil {
				sGranted <- num
			}
		}(types.TxID(i))
	}
	require.Eventually(t, func() bool {
		return len(lt.Waiters(key)) == 51
	}, waitFor, tick)

	// no barging past the X request
	assert.Len(t, lt.Holders(key), 50)
	assert.Equal(t, xTx, lt.Waiters(key)[0])

	for i := 1; i < 50; i++ {
		lt.ReleaseAll(types.TxID(i), false)
	}
	select {
	case <-xGranted:
		t.Fatal("X lock granted while an S lock is still held")
	case <-time.After(20 * time.Millisecond):
	}

	lt.ReleaseAll(50, false)
	select {
	case err := <-xGranted:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("X lock not granted after every S lock was released")
	}

	assert.Equal(t, map[types.TxID]LockMode{xTx: LockModeExclusive}, lt.Holders(key))
	assert.Len(t, lt.Waiters(key), 50)
	assert.Empty(t, sGranted)

	// every compatible head waiter is granted together
	lt.ReleaseAll(xTx, false)
	wg.Wait()
	close(sGranted)

	assert.Len(t, sGranted, 50)
	assert.Len(t, lt.Holders(key), 50)
	assert.Empty(t, lt.Waiters(key))
}

func TestLockTableWaitBudget(t *testing.T) {
	lt := newTestLockTable(50 * time.Millisecond)
	key := types.NewBlock("stock.tbl", 7)

	require.NoError(t, lt.XLock(key, 1))

	err := lt.SLock(key, 2)
	require.ErrorIs(t, err, ErrLockAbort)

	assert.Empty(t, lt.Waiters(key))
	assert.Empty(t, lt.HeldBy(2))
	assert.Equal(t, 1, lt.Len())

	lt.ReleaseAll(1, false)
	assert.Zero(t, lt.Len())
}

func TestLockTableAbortedHeadUnblocksQueue(t *testing.T) {
	lt := NewLockTable(200*time.Millisecond, nil, nil)
	key := types.NewBlock("orders.tbl", 0)

	require.NoError(t, lt.SLock(key, 1))

	xErr := make(chan error, 1)
	go func() {
		xErr <- lt.XLock(key, 2)
	}()
	require.Eventually(t, func() bool {
		return len(lt.Waiters(key)) == 1
	}, waitFor, tick)

	time.Sleep(50 * time.Millisecond)

	// the S request queues behind the X request, and is granted when the X request gives up
	require.NoError(t, lt.SLock(key, 3))
	require.ErrorIs(t, <-xErr, ErrLockAbort)

	assert.Equal(t, map[types.TxID]LockMode{1: LockModeShared, 3: LockModeShared}, lt.Holders(key))
}

func TestLockTableReleaseSharedOnly(t *testing.T) {
	lt := newTestLockTable(time.Second)
	a := types.NewBlock("a", 0)
	b := types.NewBlock("b", 0)

	require.NoError(t, lt.SLock(a, 1))
	require.NoError(t, lt.XLock(b, 1))

	lt.ReleaseAll(1, true)
	assert.Equal(t, []types.Lockable{b}, lt.HeldBy(1))

	lt.ReleaseAll(1, false)
	assert.Empty(t, lt.HeldBy(1))
	assert.Zero(t, lt.Len())
}

func TestLockTableReleaseAllLeavesNoTrace(t *testing.T) {
	lt := newTestLockTable(time.Second)

	keys := make([]types.Lockable, 0, 20)
	for i := 0; i < 20; i++ {
		keys = append(keys, types.NewRID(types.NewBlock("item.tbl", int64(i/5)), i%5))
	}

	for i, k := range keys {
		if i%2 == 0 {
			require.NoError(t, lt.XLock(k, 9))
		} else {
			require.NoError(t, lt.SLock(k, 9))
			require.NoError(t, lt.SLock(k, 10))
		}
	}
	assert.Len(t, lt.HeldBy(9), 20)

	lt.ReleaseAll(9, false)
	assert.Empty(t, lt.HeldBy(9))
	for _, k := range keys {
		_, held := lt.Holders(k)[9]
		assert.False(t, held)
		assert.NotContains(t, lt.Waiters(k), types.TxID(9))
	}

	lt.ReleaseAll(10, false)
	assert.Zero(t, lt.Len())
}
