package micro

import (
	"io"

	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
)

// ItemMapping maps item ids to the records holding them.
// It is built once before any procedure runs and never changes afterwards,
// so procedures share it without synchronization.
type ItemMapping struct {
	rids map[int]types.RID
}

// BuildItemMapping scans the item table of d.
// It must complete before the first MicroTxn is prepared.
func BuildItemMapping(d *db.DB) (*ItemMapping, error) {
	x, err := d.Begin(true)
	if err != nil {
		return nil, err
	}

	m, err := scanItems(d, x)
	if err != nil {
		_ = x.Rollback()
		return nil, err
	}

	return m, x.Commit()
}

func scanItems(d *db.DB, x tx.Transaction) (*ItemMapping, error) {
	ti, err := d.Catalog().TableInfo(TableItem, x)
	if err != nil {
		return nil, err
	}

	rf, err := ti.Open(x, true)
	if err != nil {
		return nil, err
	}
	defer rf.Close()

	if err := rf.BeforeFirst(); err != nil {
		return nil, err
	}

	m := &ItemMapping{rids: make(map[int]types.RID, ti.RecordCount())}
	for {
		err := rf.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		id, err := rf.Val("i_id")
		if err != nil {
			return nil, err
		}
		rid, err := rf.CurrentRID()
		if err != nil {
			return nil, err
		}
		m.rids[id.AsInt()] = rid
	}

	return m, nil
}

// Lookup returns the record of item id.
func (m *ItemMapping) Lookup(id int) (types.RID, bool) {
	rid, ok := m.rids[id]
	return rid, ok
}

func (m *ItemMapping) Len() int {
	return len(m.rids)
}
