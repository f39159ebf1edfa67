package engine

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/tx"
)

// TableInfo describes a table and gives access to its records.
type TableInfo struct {
	name      string
	schema    Schema
	keyFields []string
	t         *table
}

func (ti *TableInfo) Name() string {
	return ti.name
}

func (ti *TableInfo) Schema() Schema {
	return ti.schema
}

// KeyFields returns the fields the table is indexed on.
func (ti *TableInfo) KeyFields() []string {
	return ti.keyFields
}

func (ti *TableInfo) FileName() string {
	return ti.t.fileName
}

// RecordCount returns the number of records in the table, committed or not.
func (ti *TableInfo) RecordCount() int {
	return ti.t.len()
}

// Open returns a RecordFile over the table for the transaction x.
// A RecordFile opened with readOnly cannot modify the table, and
// a read-only transaction can only open read-only files.
func (ti *TableInfo) Open(x tx.Transaction, readOnly bool) (*RecordFile, error) {
	if !readOnly && x.IsReadOnly() {
		return nil, errors.Wrapf(ErrReadOnly, "tx %d opening %s", x.Number(), ti.name)
	}
	return newRecordFile(ti, x, readOnly), nil
}

// Catalog holds the tables of the database.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*TableInfo
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[string]*TableInfo),
	}
}

// CreateTable adds a table with the given schema, indexed on keyFields.
func (c *Catalog) CreateTable(name string, schema Schema, keyFields ...string) (*TableInfo, error) {
	keyIdx := make([]int, len(keyFields))
	for i, f := range keyFields {
		idx, err := schema.index(f)
		if err != nil {
			return nil, errors.Wrapf(err, "key of table %s", name)
		}
		keyIdx[i] = idx
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[name]; ok {
		return nil, errors.Wrapf(ErrTableExists, "%s", name)
	}

	ti := &TableInfo{
		name:      name,
		schema:    schema,
		keyFields: append([]string(nil), keyFields...),
		t:         newTable(name+".tbl", schema, keyIdx),
	}
	c.tables[name] = ti
	return ti, nil
}

// TableInfo returns the table with the given name.
func (c *Catalog) TableInfo(name string, _ tx.Transaction) (*TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ti, ok := c.tables[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoTable, "%s", name)
	}
	return ti, nil
}

func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.tables))
	for name := range c.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
