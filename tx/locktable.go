package tx

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/metrics"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

// DefaultLockWaitBudget is how long a request waits for a lock before it aborts.
const DefaultLockWaitBudget = 10 * time.Second

type LockMode int8

const (
	LockModeNone LockMode = iota
	LockModeShared
	LockModeExclusive
)

func (m LockMode) String() string {
	switch m {
	case LockModeShared:
		return "S"
	case LockModeExclusive:
		return "X"
	}
	return "NONE"
}

// covers returns true if holding m makes a request for other redundant.
func (m LockMode) covers(other LockMode) bool {
	return m >= other
}

type lockRequest struct {
	txNum   types.TxID
	mode    LockMode
	granted bool
	// closed when the request is granted
	ready chan struct{}
}

// lockState is the entry of a single lockable in the table.
type lockState struct {
	key     types.Lockable
	holders map[types.TxID]LockMode
	waiters []*lockRequest
}

func newLockState(key types.Lockable) *lockState {
	return &lockState{
		key:     key,
		holders: make(map[types.TxID]LockMode),
	}
}

// compatible returns true if txNum can hold the lock in the given mode
// alongside the current holders. Holds of txNum itself never conflict.
func (ls *lockState) compatible(txNum types.TxID, mode LockMode) bool {
	for h, m := range ls.holders {
		if h == txNum {
			continue
		}
		if mode == LockModeExclusive || m == LockModeExclusive {
			return false
		}
	}
	return true
}

func (ls *lockState) soleHolder(txNum types.TxID) bool {
	_, ok := ls.holders[txNum]
	return ok && len(ls.holders) == 1
}

func (ls *lockState) free() bool {
	return len(ls.holders) == 0 && len(ls.waiters) == 0
}

// LockTable maps lockable identities to their shared and exclusive holders.
// A request that conflicts with the current holders, or that arrives while
// other requests are already waiting, joins the FIFO queue of the lock.
// Whenever a lock is released the head of the queue is granted, together with
// every following request compatible with it.
// All grant decisions are taken under a single mutex.
// The table does not detect deadlocks: a request that waits longer than the
// wait budget is removed from the queue and fails with ErrLockAbort.
type LockTable struct {
	mu      sync.Mutex
	buckets map[uint64][]*lockState
	// txLocks indexes the entries each transaction holds
	txLocks map[types.TxID]map[*lockState]struct{}

	waitBudget time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewLockTable(waitBudget time.Duration, m *metrics.Metrics, logger *zap.Logger) *LockTable {
	if waitBudget <= 0 {
		waitBudget = DefaultLockWaitBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LockTable{
		buckets:    make(map[uint64][]*lockState),
		txLocks:    make(map[types.TxID]map[*lockState]struct{}),
		waitBudget: waitBudget,
		metrics:    m,
		logger:     logger.Named("locktable"),
	}
}

// SLock grants a shared lock on key to txNum.
// If the key is X-locked by another transaction, or other requests are
// queued on it, the caller waits until the request reaches the head of the
// queue and becomes compatible, or until the wait budget expires.
func (lt *LockTable) SLock(key types.Lockable, txNum types.TxID) error {
	return lt.lock(key, txNum, LockModeShared)
}

// XLock grants an exclusive lock on key to txNum.
// A shared lock held by txNum is upgraded, immediately if txNum is the only holder.
func (lt *LockTable) XLock(key types.Lockable, txNum types.TxID) error {
	return lt.lock(key, txNum, LockModeExclusive)
}

func (lt *LockTable) lock(key types.Lockable, txNum types.TxID, mode LockMode) error {
	lt.mu.Lock()
	ls := lt.getOrCreate(key)

	held := ls.holders[txNum]
	if held.covers(mode) {
		lt.mu.Unlock()
		return nil
	}

	upgrade := held == LockModeShared && ls.soleHolder(txNum)
	if upgrade || (len(ls.waiters) == 0 && ls.compatible(txNum, mode)) {
		lt.grant(ls, txNum, mode)
		lt.mu.Unlock()
		return nil
	}

	req := &lockRequest{
		txNum: txNum,
		mode:  mode,
		ready: make(chan struct{}),
	}
	ls.waiters = append(ls.waiters, req)
	lt.mu.Unlock()

	return lt.wait(ls, req)
}

func (lt *LockTable) wait(ls *lockState, req *lockRequest) error {
	start := time.Now()
	timer := time.NewTimer(lt.waitBudget)
	defer timer.Stop()

	select {
	case <-req.ready:
		lt.metrics.ObserveLockWait(time.Since(start))
		return nil
	case <-timer.C:
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()

	// the grant may have raced with the timer
	if req.granted {
		lt.metrics.ObserveLockWait(time.Since(start))
		return nil
	}

	lt.removeWaiter(ls, req)
	// a dequeued head may unblock the requests behind it
	lt.grantWaiters(ls)
	lt.collect(ls)

	lt.metrics.IncLockAbort()
	lt.logger.Warn("lock wait budget exceeded",
		zap.Uint64("tx", uint64(req.txNum)),
		zap.Stringer("mode", req.mode),
		zap.Stringer("key", ls.key),
		zap.Duration("budget", lt.waitBudget),
	)

	return errors.Wrapf(ErrLockAbort, "tx %d waiting %s lock on %s", req.txNum, req.mode, ls.key)
}

// ReleaseAll drops every lock held by txNum and grants the requests that
// become compatible. With sharedOnly set, exclusive locks are kept.
func (lt *LockTable) ReleaseAll(txNum types.TxID, sharedOnly bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	held := lt.txLocks[txNum]
	for ls := range held {
		if sharedOnly && ls.holders[txNum] == LockModeExclusive {
			continue
		}

		delete(ls.holders, txNum)
		delete(held, ls)
		lt.grantWaiters(ls)
		lt.collect(ls)
	}

	if len(held) == 0 {
		delete(lt.txLocks, txNum)
	}
}

// grant records txNum as a holder of ls. Callers hold lt.mu.
func (lt *LockTable) grant(ls *lockState, txNum types.TxID, mode LockMode) {
	if ls.holders[txNum].covers(mode) {
		return
	}
	ls.holders[txNum] = mode

	held, ok := lt.txLocks[txNum]
	if !ok {
		held = make(map[*lockState]struct{})
		lt.txLocks[txNum] = held
	}
	held[ls] = struct{}{}
}

// grantWaiters grants queued requests in FIFO order for as long as the
// head of the queue is compatible with the holders. Callers hold lt.mu.
func (lt *LockTable) grantWaiters(ls *lockState) {
	for len(ls.waiters) > 0 {
		head := ls.waiters[0]
		if !ls.compatible(head.txNum, head.mode) {
			return
		}

		ls.waiters[0] = nil
		ls.waiters = ls.waiters[1:]

		lt.grant(ls, head.txNum, head.mode)
		head.granted = true
		close(head.ready)
	}
}

func (lt *LockTable) removeWaiter(ls *lockState, req *lockRequest) {
	for i, w := range ls.waiters {
		if w == req {
			ls.waiters = append(ls.waiters[:i], ls.waiters[i+1:]...)
			return
		}
	}
}

func (lt *LockTable) getOrCreate(key types.Lockable) *lockState {
	h := key.Hash()
	for _, ls := range lt.buckets[h] {
		if ls.key.Equals(key) {
			return ls
		}
	}

	ls := newLockState(key)
	lt.buckets[h] = append(lt.buckets[h], ls)
	return ls
}

func (lt *LockTable) lookup(key types.Lockable) *lockState {
	for _, ls := range lt.buckets[key.Hash()] {
		if ls.key.Equals(key) {
			return ls
		}
	}
	return nil
}

// collect removes ls from the table when it has no holders and no waiters.
func (lt *LockTable) collect(ls *lockState) {
	if !ls.free() {
		return
	}

	h := ls.key.Hash()
	bucket := lt.buckets[h]
	for i, s := range bucket {
		if s == ls {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}

	if len(bucket) == 0 {
		delete(lt.buckets, h)
		return
	}
	lt.buckets[h] = bucket
}

// Len returns the number of lockables that have holders or waiters.
func (lt *LockTable) Len() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	n := 0
	for _, b := range lt.buckets {
		n += len(b)
	}
	return n
}

// HeldBy returns the lockables held by txNum in their total order.
func (lt *LockTable) HeldBy(txNum types.TxID) []types.Lockable {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	out := make([]types.Lockable, 0, len(lt.txLocks[txNum]))
	for ls := range lt.txLocks[txNum] {
		out = append(out, ls.key)
	}
	types.SortLockables(out)
	return out
}

// Holders returns a copy of the holders of key and their modes.
func (lt *LockTable) Holders(key types.Lockable) map[types.TxID]LockMode {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	out := make(map[types.TxID]LockMode)
	if ls := lt.lookup(key); ls != nil {
		for h, m := range ls.holders {
			out[h] = m
		}
	}
	return out
}

// Waiters returns the transactions queued on key, head first.
func (lt *LockTable) Waiters(key types.Lockable) []types.TxID {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	ls := lt.lookup(key)
	if ls == nil {
		return nil
	}

	out := make([]types.TxID, len(ls.waiters))
	for i, w := range ls.waiters {
		out[i] = w.txNum
	}
	return out
}

func (lt *LockTable) String() string {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	n := 0
	for _, b := range lt.buckets {
		n += len(b)
	}
	return fmt.Sprintf("LockTable{entries: %d, txs: %d, budget: %s}", n, len(lt.txLocks), lt.waitBudget)
}
