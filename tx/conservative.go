package tx

import (
	"github.com/luigitni/detdb/types"
)

var _ ConcurrencyManager = (*ConservativeConcurrencyManager)(nil)

// ConservativeConcurrencyManager implements conservative two-phase locking.
// The keys a transaction reads and writes are booked while the transaction
// is admitted, and are all locked by AcquireBookedLocks before the first
// access. Every lock is released at commit or rollback, so the per-object
// hints are no-ops.
type ConservativeConcurrencyManager struct {
	txNum     types.TxID
	lockTable *LockTable

	bookedReadKeys  *types.LockableSet
	bookedWriteKeys *types.LockableSet
	sealed          bool
	acquired        bool
}

func NewConservativeConcurrencyManager(txNum types.TxID, lt *LockTable) *ConservativeConcurrencyManager {
	return &ConservativeConcurrencyManager{
		txNum:           txNum,
		lockTable:       lt,
		bookedReadKeys:  types.NewLockableSet(),
		bookedWriteKeys: types.NewLockableSet(),
	}
}

// BookReadKeys adds keys to the booked read set.
// Booking the same key twice has no effect.
func (cm *ConservativeConcurrencyManager) BookReadKeys(keys *types.LockableSet) error {
	if cm.sealed {
		return ErrBookingClosed
	}
	cm.bookedReadKeys.AddAll(keys)
	return nil
}

// BookWriteKeys adds keys to the booked write set.
func (cm *ConservativeConcurrencyManager) BookWriteKeys(keys *types.LockableSet) error {
	if cm.sealed {
		return ErrBookingClosed
	}
	cm.bookedWriteKeys.AddAll(keys)
	return nil
}

// SealBooking closes the booking window of the transaction.
func (cm *ConservativeConcurrencyManager) SealBooking() {
	cm.sealed = true
}

func (cm *ConservativeConcurrencyManager) BookedReadKeys() []types.Lockable {
	return cm.bookedReadKeys.Sorted()
}

func (cm *ConservativeConcurrencyManager) BookedWriteKeys() []types.Lockable {
	return cm.bookedWriteKeys.Sorted()
}

// AcquireBookedLocks locks every booked key: X for write keys, S for read
// keys that are not also write keys. Keys are locked one at a time in their
// total order, so transactions never wait on each other in a cycle.
// It returns once all the locks are held.
// If a lock cannot be acquired, every lock of the transaction is released
// before the error is returned.
// Only the first call acquires anything.
func (cm *ConservativeConcurrencyManager) AcquireBookedLocks() error {
	if cm.acquired {
		return nil
	}
	cm.acquired = true
	cm.sealed = true

	return cm.lockAll(cm.bookedReadKeys, cm.bookedWriteKeys)
}

// LockReadWriteRecordIDs locks records the way AcquireBookedLocks locks booked keys.
func (cm *ConservativeConcurrencyManager) LockReadWriteRecordIDs(read, write []types.RID) error {
	writeSet := types.NewLockableSet()
	for _, rid := range write {
		writeSet.Add(rid)
	}

	readSet := types.NewLockableSet()
	for _, rid := range read {
		readSet.Add(rid)
	}

	return cm.lockAll(readSet, writeSet)
}

func (cm *ConservativeConcurrencyManager) lockAll(reads, writes *types.LockableSet) error {
	keys := types.NewLockableSet()
	keys.AddAll(reads)
	keys.AddAll(writes)

	for _, k := range keys.Sorted() {
		var err error
		if writes.Contains(k) {
			err = cm.lockTable.XLock(k, cm.txNum)
		} else {
			err = cm.lockTable.SLock(k, cm.txNum)
		}

		if err != nil {
			cm.lockTable.ReleaseAll(cm.txNum, false)
			return err
		}
	}

	return nil
}

func (cm *ConservativeConcurrencyManager) OnTxCommit() {
	cm.lockTable.ReleaseAll(cm.txNum, false)
}

func (cm *ConservativeConcurrencyManager) OnTxRollback() {
	cm.lockTable.ReleaseAll(cm.txNum, false)
}

func (cm *ConservativeConcurrencyManager) OnTxEndStatement() {}

func (cm *ConservativeConcurrencyManager) ModifyFile(string) error { return nil }

func (cm *ConservativeConcurrencyManager) ReadFile(string) error { return nil }

func (cm *ConservativeConcurrencyManager) InsertBlock(types.Block) error { return nil }

func (cm *ConservativeConcurrencyManager) ModifyBlock(types.Block) error { return nil }

func (cm *ConservativeConcurrencyManager) ReadBlock(types.Block) error { return nil }

func (cm *ConservativeConcurrencyManager) ModifyRecord(types.RID) error { return nil }

func (cm *ConservativeConcurrencyManager) ReadRecord(types.RID) error { return nil }

func (cm *ConservativeConcurrencyManager) ModifyIndex(string) error { return nil }

func (cm *ConservativeConcurrencyManager) ReadIndex(string) error { return nil }

func (cm *ConservativeConcurrencyManager) ModifyLeafBlock(types.Block) error { return nil }

func (cm *ConservativeConcurrencyManager) ReadLeafBlock(types.Block) error { return nil }
