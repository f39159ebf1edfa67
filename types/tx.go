package types

import "fmt"

// TxID is the number of a transaction.
// Numbers are assigned in admission order and never reused.
type TxID uint64

const (
	TxIDInvalid TxID = 0
	TxIDStart   TxID = 1
)

type Isolation int8

const (
	IsolationSerializable Isolation = iota
)

func (i Isolation) String() string {
	switch i {
	case IsolationSerializable:
		return "SERIALIZABLE"
	}
	return fmt.Sprintf("Isolation(%d)", i)
}
