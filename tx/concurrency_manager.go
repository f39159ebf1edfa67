package tx

import "github.com/luigitni/detdb/types"

// ConcurrencyManager is transaction specific.
// It is told about the lifecycle of its transaction and about every object
// the transaction reads or modifies, and interacts with the global lock
// table as the concurrency protocol requires.
type ConcurrencyManager interface {
	OnTxCommit()
	OnTxRollback()
	OnTxEndStatement()

	ModifyFile(fileName string) error
	ReadFile(fileName string) error
	InsertBlock(block types.Block) error
	ModifyBlock(block types.Block) error
	ReadBlock(block types.Block) error
	ModifyRecord(rid types.RID) error
	ReadRecord(rid types.RID) error
	ModifyIndex(dataFileName string) error
	ReadIndex(dataFileName string) error
	ModifyLeafBlock(block types.Block) error
	ReadLeafBlock(block types.Block) error
}

// indexFileName names the lockable file of the index over dataFileName.
func indexFileName(dataFileName string) string {
	return dataFileName + ".idx"
}
