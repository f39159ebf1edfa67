package micro

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/sproc"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
)

const ProcMicroTxn = "micro_txn"

// MicroTxnArgs returns the parameters of a MicroTxn in the order
// MicroTxnParams.PrepareParameters expects them.
func MicroTxnArgs(readIDs, writeIDs []int, newPrices []float64) []any {
	args := []any{len(readIDs)}
	for _, id := range readIDs {
		args = append(args, id)
	}
	args = append(args, len(writeIDs))
	for _, id := range writeIDs {
		args = append(args, id)
	}
	for _, p := range newPrices {
		args = append(args, p)
	}
	return args
}

// MicroTxnParams holds the items a MicroTxn reads and writes, and what it read.
type MicroTxnParams struct {
	ReadIDs   []int
	WriteIDs  []int
	NewPrices []float64

	ItemNames  []string
	ItemPrices []float64
}

var _ sproc.ParamHelper = (*MicroTxnParams)(nil)

// PrepareParameters expects the read count and the read ids, then the write
// count, the write ids and one new price per write id.
func (p *MicroTxnParams) PrepareParameters(params ...any) error {
	next := 0
	nextInt := func() (int, error) {
		if next >= len(params) {
			return 0, errors.Newf("micro txn parameters end at %d", next)
		}
		v, ok := params[next].(int)
		if !ok {
			return 0, errors.Newf("parameter %d of micro txn is %T, want int", next, params[next])
		}
		next++
		return v, nil
	}

	ids := func() ([]int, error) {
		n, err := nextInt()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errors.Newf("negative item count %d", n)
		}
		out := make([]int, n)
		for i := range out {
			if out[i], err = nextInt(); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var err error
	if p.ReadIDs, err = ids(); err != nil {
		return err
	}
	if p.WriteIDs, err = ids(); err != nil {
		return err
	}

	if len(params)-next != len(p.WriteIDs) {
		return errors.Newf("micro txn writes %d items but has %d prices", len(p.WriteIDs), len(params)-next)
	}
	p.NewPrices = make([]float64, len(p.WriteIDs))
	for i := range p.NewPrices {
		v, ok := params[next+i].(float64)
		if !ok {
			return errors.Newf("price %d of micro txn is %T, want float64", i, params[next+i])
		}
		p.NewPrices[i] = v
	}

	p.ItemNames = make([]string, len(p.ReadIDs))
	p.ItemPrices = make([]float64, len(p.ReadIDs))
	return nil
}

func (p *MicroTxnParams) IsReadOnly() bool {
	return len(p.WriteIDs) == 0
}

func (p *MicroTxnParams) ResultSetSchema() engine.Schema {
	s := engine.NewSchema()
	s.AddIntField("read_count")
	s.AddDoubleField("price_sum")
	return s
}

func (p *MicroTxnParams) NewResultSetRecord() sproc.Record {
	var sum float64
	for _, price := range p.ItemPrices {
		sum += price
	}

	r := sproc.NewRecord()
	r.Set("read_count", types.NewInt(len(p.ReadIDs)))
	r.Set("price_sum", types.NewDouble(sum))
	return r
}

type microTxn struct {
	mapping *ItemMapping
	p       *MicroTxnParams
}

// MicroTxn returns a procedure reading the names and prices of some items
// and updating the prices of others. It locks the records of the items
// itself, through the item mapping of the workload.
func (w *Workload) MicroTxn() *sproc.StoredProcedure {
	mt := &microTxn{
		mapping: w.mapping,
		p:       &MicroTxnParams{},
	}
	return sproc.New(w.env, ProcMicroTxn, mt.p, sproc.Hooks{
		ExecuteSQL: mt.executeSQL,
	})
}

func (mt *microTxn) resolve(ids []int) ([]types.RID, error) {
	rids := make([]types.RID, len(ids))
	for i, id := range ids {
		rid, ok := mt.mapping.Lookup(id)
		if !ok {
			return nil, errors.Newf("item %d not found", id)
		}
		rids[i] = rid
	}
	return rids, nil
}

func (mt *microTxn) executeSQL(sp *sproc.StoredProcedure) (sproc.Outcome, error) {
	p := mt.p

	read, err := mt.resolve(p.ReadIDs)
	if err != nil {
		return sproc.Abort(err.Error()), nil
	}
	write, err := mt.resolve(p.WriteIDs)
	if err != nil {
		return sproc.Abort(err.Error()), nil
	}

	// lock-on-access managers lock records as they are read
	if cm, ok := sp.Transaction().ConcurrencyMgr().(*tx.ConservativeConcurrencyManager); ok {
		if err := cm.LockReadWriteRecordIDs(read, write); err != nil {
			return sproc.Outcome{}, err
		}
	}

	for i, id := range p.ReadIDs {
		rec, err := sp.QueryRow(sql.Select("i_name", "i_price").From(TableItem).Where(sql.FieldEq("i_id", types.NewInt(id))))
		if err != nil {
			return sproc.Outcome{}, errors.Wrapf(err, "reading item %d", id)
		}

		name, _ := rec.Val("i_name")
		price, _ := rec.Val("i_price")
		p.ItemNames[i] = name.AsString()
		p.ItemPrices[i] = price.AsDouble()
	}

	for i, id := range p.WriteIDs {
		n, err := sp.Update(sql.Update(TableItem).
			Set("i_price", sql.Const(types.NewDouble(p.NewPrices[i]))).
			Where(sql.FieldEq("i_id", types.NewInt(id))))
		if err != nil {
			return sproc.Outcome{}, err
		}
		if n == 0 {
			return sproc.Abort(fmt.Sprintf("item %d not found", id)), nil
		}
	}

	return sproc.Ok(), nil
}
