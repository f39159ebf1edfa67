package engine

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
)

// Planner turns statements into scans over the catalog.
// It supports single-table statements whose predicates are conjunctions of
// equalities. When the predicate fixes every key field of the table the
// scan goes through the key index, otherwise it reads the whole table.
type Planner struct {
	catalog *Catalog
}

func NewPlanner(catalog *Catalog) *Planner {
	return &Planner{
		catalog: catalog,
	}
}

// ExecuteQuery returns a scan over the result of q, positioned before its first record.
func (p *Planner) ExecuteQuery(q sql.Query, x tx.Transaction) (Scan, error) {
	tables := q.Tables()
	if len(tables) != 1 {
		return nil, errors.Wrapf(ErrBadSemantic, "query over %d tables: joins are not supported", len(tables))
	}

	ti, err := p.catalog.TableInfo(tables[0], x)
	if err != nil {
		return nil, err
	}

	for _, f := range q.Fields() {
		if !ti.schema.HasField(f) {
			return nil, errors.Wrapf(ErrNoField, "%s.%s", ti.name, f)
		}
	}

	rf, err := ti.Open(x, true)
	if err != nil {
		return nil, err
	}

	s, err := p.selectScan(ti, rf, q.Predicate())
	if err != nil {
		rf.Close()
		return nil, err
	}

	if len(q.Fields()) == 0 {
		return s, nil
	}
	return newProjectScan(s, q.Fields()), nil
}

// selectScan positions rf over the records that may satisfy pred and filters them.
func (p *Planner) selectScan(ti *TableInfo, rf *RecordFile, pred sql.Predicate) (Scan, error) {
	if !pred.AppliesTo(ti.schema) {
		return nil, errors.Wrapf(ErrNoField, "predicate %s on %s", pred, ti.name)
	}

	if key, ok := indexKey(ti, pred); ok {
		if err := rf.SeekKey(key); err != nil {
			return nil, err
		}
	} else if err := rf.BeforeFirst(); err != nil {
		return nil, err
	}

	return newSelectScan(rf, pred), nil
}

// indexKey returns the key values pred equates the key fields of ti with.
func indexKey(ti *TableInfo, pred sql.Predicate) ([]types.Constant, bool) {
	if len(ti.keyFields) == 0 {
		return nil, false
	}

	key := make([]types.Constant, len(ti.keyFields))
	for i, f := range ti.keyFields {
		c, ok := pred.EquatesWithConstant(f)
		if !ok {
			return nil, false
		}
		key[i] = c
	}
	return key, true
}

// ExecuteUpdate runs an INSERT, UPDATE or DELETE and returns the number of affected records.
func (p *Planner) ExecuteUpdate(cmd sql.Command, x tx.Transaction) (int, error) {
	var (
		n   int
		err error
	)

	switch c := cmd.(type) {
	case sql.InsertCommand:
		n, err = p.executeInsert(c, x)
	case sql.UpdateCommand:
		n, err = p.executeModify(c, x)
	case sql.DeleteCommand:
		n, err = p.executeDelete(c, x)
	default:
		return 0, errors.Wrapf(ErrBadSemantic, "%s is not an update", cmd)
	}

	if err != nil {
		return n, err
	}

	x.ConcurrencyMgr().OnTxEndStatement()
	return n, nil
}

func (p *Planner) executeInsert(c sql.InsertCommand, x tx.Transaction) (int, error) {
	if len(c.Fields) != len(c.Values) {
		return 0, errors.Wrapf(ErrBadSemantic, "%d fields and %d values", len(c.Fields), len(c.Values))
	}

	ti, err := p.catalog.TableInfo(c.TableName, x)
	if err != nil {
		return 0, err
	}

	// validate before touching the table
	for i, f := range c.Fields {
		if _, err := ti.schema.cast(f, c.Values[i]); err != nil {
			return 0, err
		}
	}

	rf, err := ti.Open(x, false)
	if err != nil {
		return 0, err
	}
	defer rf.Close()

	if err := rf.Insert(); err != nil {
		return 0, err
	}

	for i, f := range c.Fields {
		if err := rf.SetVal(f, c.Values[i]); err != nil {
			return 0, err
		}
	}

	return 1, nil
}

func (p *Planner) executeModify(c sql.UpdateCommand, x tx.Transaction) (int, error) {
	ti, err := p.catalog.TableInfo(c.TableName, x)
	if err != nil {
		return 0, err
	}

	for _, a := range c.Assignments {
		if !ti.schema.HasField(a.Field) || !a.Value.AppliesTo(ti.schema) {
			return 0, errors.Wrapf(ErrNoField, "assignment %s = %s on %s", a.Field, a.Value, ti.name)
		}
	}

	rf, err := ti.Open(x, false)
	if err != nil {
		return 0, err
	}
	defer rf.Close()

	s, err := p.selectScan(ti, rf, c.Predicate)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		for _, a := range c.Assignments {
			v, err := a.Value.Evaluate(rf)
			if err != nil {
				return count, err
			}
			if err := rf.SetVal(a.Field, v); err != nil {
				return count, err
			}
		}
		count++
	}

	return count, nil
}

func (p *Planner) executeDelete(c sql.DeleteCommand, x tx.Transaction) (int, error) {
	ti, err := p.catalog.TableInfo(c.TableName, x)
	if err != nil {
		return 0, err
	}

	rf, err := ti.Open(x, false)
	if err != nil {
		return 0, err
	}
	defer rf.Close()

	s, err := p.selectScan(ti, rf, c.Predicate)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		if err := rf.Delete(); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}
