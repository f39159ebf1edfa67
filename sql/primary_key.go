package sql

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/luigitni/detdb/types"
)

// PrimaryKey is the logical identity of a row: the name of its table
// and the values of its key columns.
// PrimaryKeys are immutable and compare by value, which lets them key
// the lock table when transactions are scheduled deterministically.
type PrimaryKey struct {
	tableName string
	entries   map[string]types.Constant
	// columns holds the entry names in sorted order
	columns []string
	hash    uint64
}

var _ types.Lockable = PrimaryKey{}

// NewPrimaryKey creates a key for the given table.
// The entries are copied: later changes to the map do not affect the key.
func NewPrimaryKey(tableName string, entries map[string]types.Constant) PrimaryKey {
	pk := PrimaryKey{
		tableName: tableName,
		entries:   make(map[string]types.Constant, len(entries)),
		columns:   make([]string, 0, len(entries)),
	}

	for k, v := range entries {
		pk.entries[k] = v
		pk.columns = append(pk.columns, k)
	}
	sort.Strings(pk.columns)

	pk.hash = pk.genHash()
	return pk
}

func (pk PrimaryKey) genHash() uint64 {
	var entriesHash uint64
	// summing makes the hash independent of the iteration order
	for k, v := range pk.entries {
		entriesHash += xxhash.Sum64String(k) ^ v.Hash()
	}

	h := uint64(17)
	h = 31*h + xxhash.Sum64String(pk.tableName)
	h = 31*h + entriesHash
	return h
}

func (pk PrimaryKey) TableName() string {
	return pk.tableName
}

// Val returns the value of the given key column.
func (pk PrimaryKey) Val(column string) (types.Constant, bool) {
	v, ok := pk.entries[column]
	return v, ok
}

// Columns returns the key column names in sorted order.
func (pk PrimaryKey) Columns() []string {
	out := make([]string, len(pk.columns))
	copy(out, pk.columns)
	return out
}

func (pk PrimaryKey) Kind() types.LockableKind {
	return types.KindPrimaryKey
}

func (pk PrimaryKey) Hash() uint64 {
	return pk.hash
}

func (pk PrimaryKey) Equals(other types.Lockable) bool {
	o, ok := other.(PrimaryKey)
	if !ok {
		return false
	}

	if pk.hash != o.hash || pk.tableName != o.tableName || len(pk.entries) != len(o.entries) {
		return false
	}

	for k, v := range pk.entries {
		ov, ok := o.entries[k]
		if !ok || ov.Type() != v.Type() || !ov.Equals(v) {
			return false
		}
	}

	return true
}

// Compare orders keys by table name, then by their (column, value) entries
// taken in column order. A key whose entries are a prefix of another's sorts first.
func (pk PrimaryKey) Compare(other types.Lockable) int {
	o, ok := other.(PrimaryKey)
	if !ok {
		if pk.Kind() < other.Kind() {
			return -1
		}
		return 1
	}

	if c := strings.Compare(pk.tableName, o.tableName); c != 0 {
		return c
	}

	for i := 0; i < len(pk.columns) && i < len(o.columns); i++ {
		if c := strings.Compare(pk.columns[i], o.columns[i]); c != 0 {
			return c
		}

		v, ov := pk.entries[pk.columns[i]], o.entries[o.columns[i]]
		if c := v.Compare(ov); c != 0 {
			return c
		}
		if c := int(v.Type()) - int(ov.Type()); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(pk.columns) < len(o.columns):
		return -1
	case len(pk.columns) > len(o.columns):
		return 1
	}
	return 0
}

func (pk PrimaryKey) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	sb.WriteString(pk.tableName)
	sb.WriteString(": ")
	for i, c := range pk.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c)
		sb.WriteString(" -> ")
		sb.WriteString(pk.entries[c].String())
	}
	sb.WriteString("}")
	return sb.String()
}

// KeyBuilder accumulates the entries of a PrimaryKey.
type KeyBuilder struct {
	table   string
	entries map[string]types.Constant
}

func NewKeyBuilder(table string) *KeyBuilder {
	return &KeyBuilder{
		table:   table,
		entries: make(map[string]types.Constant),
	}
}

func (kb *KeyBuilder) Add(column string, v types.Constant) *KeyBuilder {
	kb.entries[column] = v
	return kb
}

func (kb *KeyBuilder) Build() PrimaryKey {
	return NewPrimaryKey(kb.table, kb.entries)
}
