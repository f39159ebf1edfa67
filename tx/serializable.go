package tx

import "github.com/luigitni/detdb/types"

var _ ConcurrencyManager = (*SerializableConcurrencyManager)(nil)

// SerializableConcurrencyManager locks objects as the transaction touches them
// and keeps every lock until commit or rollback.
// Files are locked through their end-of-file block, which keeps a scan of a
// file from interleaving with inserts into it.
type SerializableConcurrencyManager struct {
	txNum     types.TxID
	lockTable *LockTable
	// keys are blocks and records, which are comparable
	locks map[types.Lockable]LockMode
}

func NewSerializableConcurrencyManager(txNum types.TxID, lt *LockTable) *SerializableConcurrencyManager {
	return &SerializableConcurrencyManager{
		txNum:     txNum,
		lockTable: lt,
		locks:     make(map[types.Lockable]LockMode),
	}
}

// sLock asks the lock table for an S lock if the tx has no lock on key yet.
func (cm *SerializableConcurrencyManager) sLock(key types.Lockable) error {
	if _, ok := cm.locks[key]; ok {
		return nil
	}

	if err := cm.lockTable.SLock(key, cm.txNum); err != nil {
		return err
	}
	cm.locks[key] = LockModeShared
	return nil
}

// xLock asks the lock table for an X lock, upgrading the S lock the tx
// may already hold on key.
func (cm *SerializableConcurrencyManager) xLock(key types.Lockable) error {
	if cm.locks[key] == LockModeExclusive {
		return nil
	}

	if err := cm.lockTable.XLock(key, cm.txNum); err != nil {
		return err
	}
	cm.locks[key] = LockModeExclusive
	return nil
}

func (cm *SerializableConcurrencyManager) release() {
	cm.lockTable.ReleaseAll(cm.txNum, false)
	cm.locks = make(map[types.Lockable]LockMode)
}

func (cm *SerializableConcurrencyManager) OnTxCommit() {
	cm.release()
}

func (cm *SerializableConcurrencyManager) OnTxRollback() {
	cm.release()
}

// OnTxEndStatement keeps every lock: shrinking is deferred to the end of the transaction.
func (cm *SerializableConcurrencyManager) OnTxEndStatement() {}

func (cm *SerializableConcurrencyManager) ModifyFile(fileName string) error {
	return cm.xLock(types.FileBlock(fileName))
}

func (cm *SerializableConcurrencyManager) ReadFile(fileName string) error {
	return cm.sLock(types.FileBlock(fileName))
}

// InsertBlock locks the file against scans before locking the new block.
func (cm *SerializableConcurrencyManager) InsertBlock(block types.Block) error {
	if err := cm.xLock(types.FileBlock(block.FileName())); err != nil {
		return err
	}
	return cm.xLock(block)
}

func (cm *SerializableConcurrencyManager) ModifyBlock(block types.Block) error {
	return cm.xLock(block)
}

func (cm *SerializableConcurrencyManager) ReadBlock(block types.Block) error {
	return cm.sLock(block)
}

func (cm *SerializableConcurrencyManager) ModifyRecord(rid types.RID) error {
	return cm.xLock(rid)
}

func (cm *SerializableConcurrencyManager) ReadRecord(rid types.RID) error {
	return cm.sLock(rid)
}

func (cm *SerializableConcurrencyManager) ModifyIndex(dataFileName string) error {
	return cm.xLock(types.FileBlock(indexFileName(dataFileName)))
}

func (cm *SerializableConcurrencyManager) ReadIndex(dataFileName string) error {
	return cm.sLock(types.FileBlock(indexFileName(dataFileName)))
}

func (cm *SerializableConcurrencyManager) ModifyLeafBlock(block types.Block) error {
	return cm.xLock(block)
}

func (cm *SerializableConcurrencyManager) ReadLeafBlock(block types.Block) error {
	return cm.sLock(block)
}
