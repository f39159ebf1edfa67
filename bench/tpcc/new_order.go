package tpcc

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/sproc"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/types"
)

const ProcNewOrder = "new_order"

// OrderLine is an item ordered by a NewOrder.
type OrderLine struct {
	ItemID    int
	SupplyWID int
	Quantity  int
}

// NewOrderArgs returns the parameters of a NewOrder in the order
// NewOrderParams.PrepareParameters expects them.
func NewOrderArgs(wid, did, cid int, lines ...OrderLine) []any {
	args := []any{wid, did, cid, len(lines)}
	for _, l := range lines {
		args = append(args, l.ItemID, l.SupplyWID, l.Quantity)
	}
	return args
}

// NewOrderParams holds the input and the output of a NewOrder.
type NewOrderParams struct {
	maxOLCount int

	WID, DID, CID int
	Lines         []OrderLine

	OrderID     int
	WTax        float64
	DTax        float64
	CDiscount   float64
	CLast       string
	CCredit     string
	EntryDate   int64
	TotalAmount float64
}

var _ sproc.ParamHelper = (*NewOrderParams)(nil)

// PrepareParameters expects wid, did, cid and olCount, followed by
// olCount triples of item id, supplying warehouse and quantity.
func (p *NewOrderParams) PrepareParameters(params ...any) error {
	ints := make([]int, len(params))
	for i, v := range params {
		n, ok := v.(int)
		if !ok {
			return errors.Newf("parameter %d of new order is %T, want int", i, v)
		}
		ints[i] = n
	}

	if len(ints) < 4 {
		return errors.Newf("new order needs at least 4 parameters, got %d", len(ints))
	}
	p.WID, p.DID, p.CID = ints[0], ints[1], ints[2]

	olCount := ints[3]
	if olCount < 1 || olCount > p.maxOLCount {
		return errors.Newf("order line count %d out of [1, %d]", olCount, p.maxOLCount)
	}
	if len(ints) != 4+3*olCount {
		return errors.Newf("new order with %d lines needs %d parameters, got %d", olCount, 4+3*olCount, len(ints))
	}

	p.Lines = make([]OrderLine, olCount)
	for i := range p.Lines {
		base := 4 + 3*i
		p.Lines[i] = OrderLine{ItemID: ints[base], SupplyWID: ints[base+1], Quantity: ints[base+2]}
	}
	return nil
}

func (p *NewOrderParams) IsReadOnly() bool {
	return false
}

func (p *NewOrderParams) isAllLocal() bool {
	for _, l := range p.Lines {
		if l.SupplyWID != p.WID {
			return false
		}
	}
	return true
}

func (p *NewOrderParams) ResultSetSchema() engine.Schema {
	s := engine.NewSchema()
	s.AddDoubleField("w_tax")
	s.AddDoubleField("d_tax")
	s.AddDoubleField("c_discount")
	s.AddVarcharField("c_last")
	s.AddVarcharField("c_credit")
	s.AddIntField("o_id")
	s.AddLongField("o_entry_d")
	s.AddDoubleField("total_amount")
	return s
}

func (p *NewOrderParams) NewResultSetRecord() sproc.Record {
	r := sproc.NewRecord()
	r.Set("w_tax", types.NewDouble(p.WTax))
	r.Set("d_tax", types.NewDouble(p.DTax))
	r.Set("c_discount", types.NewDouble(p.CDiscount))
	r.Set("c_last", types.NewVarchar(p.CLast))
	r.Set("c_credit", types.NewVarchar(p.CCredit))
	r.Set("o_id", types.NewInt(p.OrderID))
	r.Set("o_entry_d", types.NewLong(p.EntryDate))
	r.Set("total_amount", types.NewDouble(p.TotalAmount))
	return r
}

type newOrder struct {
	w *Workload
	p *NewOrderParams
}

// NewOrder returns a NewOrder procedure.
func (w *Workload) NewOrder() *sproc.StoredProcedure {
	no := &newOrder{
		w: w,
		p: &NewOrderParams{maxOLCount: w.cfg.MaxOLCount},
	}
	return sproc.New(w.env, ProcNewOrder, no.p, sproc.Hooks{
		PrepareKeys: no.prepareKeys,
		ExecuteSQL:  no.executeSQL,
	})
}

func key(table string) *sql.KeyBuilder {
	return sql.NewKeyBuilder(table)
}

func (no *newOrder) prepareKeys(keys *sproc.KeySetBuilder) error {
	p := no.p
	oid, err := no.w.orderIDs.Next(p.WID, p.DID)
	if err != nil {
		return err
	}
	p.OrderID = oid

	wid, did, oidc := types.NewInt(p.WID), types.NewInt(p.DID), types.NewInt(oid)

	keys.AddReadKey(key(TableWarehouse).Add("w_id", wid).Build())
	keys.AddReadWriteKey(key(TableDistrict).Add("d_w_id", wid).Add("d_id", did).Build())
	keys.AddReadKey(key(TableCustomer).
		Add("c_w_id", wid).
		Add("c_d_id", did).
		Add("c_id", types.NewInt(p.CID)).
		Build())
	keys.AddWriteKey(key(TableOrders).Add("o_w_id", wid).Add("o_d_id", did).Add("o_id", oidc).Build())
	keys.AddWriteKey(key(TableNewOrder).Add("no_w_id", wid).Add("no_d_id", did).Add("no_o_id", oidc).Build())

	for i, l := range p.Lines {
		iid := types.NewInt(l.ItemID)
		keys.AddReadKey(key(TableItem).Add("i_id", iid).Build())
		keys.AddReadWriteKey(key(TableStock).Add("s_i_id", iid).Add("s_w_id", types.NewInt(l.SupplyWID)).Build())
		keys.AddWriteKey(key(TableOrderLine).
			Add("ol_o_id", oidc).
			Add("ol_d_id", did).
			Add("ol_w_id", wid).
			Add("ol_number", types.NewInt(i+1)).
			Build())
	}

	return nil
}

func val(rec sproc.Record, field string) types.Constant {
	v, _ := rec.Val(field)
	return v
}

func (no *newOrder) executeSQL(sp *sproc.StoredProcedure) (sproc.Outcome, error) {
	p := no.p
	wid, did := types.NewInt(p.WID), types.NewInt(p.DID)
	oid := p.OrderID

	rec, err := sp.QueryRow(sql.Select("w_tax").From(TableWarehouse).Where(sql.FieldEq("w_id", wid)))
	if err != nil {
		return sproc.Outcome{}, err
	}
	p.WTax = val(rec, "w_tax").AsDouble()

	districtWhere := []sql.Term{sql.FieldEq("d_w_id", wid), sql.FieldEq("d_id", did)}
	rec, err = sp.QueryRow(sql.Select("d_tax", "d_next_o_id").From(TableDistrict).Where(districtWhere...))
	if err != nil {
		return sproc.Outcome{}, err
	}
	p.DTax = val(rec, "d_tax").AsDouble()

	// the order id was drawn when the keys were prepared, and orders drawn
	// later on the same district may have locked it first
	next := val(rec, "d_next_o_id").AsInt()
	if oid+1 > next {
		next = oid + 1
	}
	if _, err := sp.Update(sql.Update(TableDistrict).
		Set("d_next_o_id", sql.Const(types.NewInt(next))).
		Where(districtWhere...)); err != nil {
		return sproc.Outcome{}, err
	}

	rec, err = sp.QueryRow(sql.Select("c_discount", "c_last", "c_credit").From(TableCustomer).Where(
		sql.FieldEq("c_w_id", wid),
		sql.FieldEq("c_d_id", did),
		sql.FieldEq("c_id", types.NewInt(p.CID)),
	))
	if err != nil {
		return sproc.Outcome{}, err
	}
	p.CDiscount = val(rec, "c_discount").AsDouble()
	p.CLast = val(rec, "c_last").AsString()
	p.CCredit = val(rec, "c_credit").AsString()

	allLocal := 0
	if p.isAllLocal() {
		allLocal = 1
	}
	p.EntryDate = time.Now().UnixMilli()

	if _, err := sp.Update(sql.InsertInto(TableOrders,
		"o_id", "o_w_id", "o_d_id", "o_c_id", "o_entry_d", "o_carrier_id", "o_ol_cnt", "o_all_local").Row(
		types.NewInt(oid), wid, did, types.NewInt(p.CID), types.NewLong(p.EntryDate),
		types.NewInt(0), types.NewInt(len(p.Lines)), types.NewInt(allLocal),
	)); err != nil {
		return sproc.Outcome{}, err
	}

	if _, err := sp.Update(sql.InsertInto(TableNewOrder, "no_o_id", "no_d_id", "no_w_id").Row(
		types.NewInt(oid), did, wid,
	)); err != nil {
		return sproc.Outcome{}, err
	}

	distInfo := distInfoField(p.DID)
	var total float64
	for i, l := range p.Lines {
		iid, swid := types.NewInt(l.ItemID), types.NewInt(l.SupplyWID)

		rec, err := sp.QueryRow(sql.Select("i_price", "i_name", "i_data").From(TableItem).Where(sql.FieldEq("i_id", iid)))
		if errors.Is(err, sproc.ErrNoRows) {
			return sproc.Abort(fmt.Sprintf("item %d not found", l.ItemID)), nil
		}
		if err != nil {
			return sproc.Outcome{}, err
		}
		price := val(rec, "i_price").AsDouble()

		stockWhere := []sql.Term{sql.FieldEq("s_i_id", iid), sql.FieldEq("s_w_id", swid)}
		rec, err = sp.QueryRow(sql.Select("s_quantity", distInfo, "s_data", "s_ytd", "s_order_cnt", "s_remote_cnt").
			From(TableStock).
			Where(stockWhere...))
		if err != nil {
			return sproc.Outcome{}, err
		}

		quantity := val(rec, "s_quantity").AsInt() - l.Quantity
		if quantity < 10 {
			quantity += 91
		}
		remote := val(rec, "s_remote_cnt").AsInt()
		if l.SupplyWID != p.WID {
			remote++
		}

		if _, err := sp.Update(sql.Update(TableStock).
			Set("s_quantity", sql.Const(types.NewInt(quantity))).
			Set("s_ytd", sql.Const(types.NewInt(val(rec, "s_ytd").AsInt()+l.Quantity))).
			Set("s_order_cnt", sql.Const(types.NewInt(val(rec, "s_order_cnt").AsInt()+1))).
			Set("s_remote_cnt", sql.Const(types.NewInt(remote))).
			Where(stockWhere...)); err != nil {
			return sproc.Outcome{}, err
		}

		amount := float64(l.Quantity) * price
		if _, err := sp.Update(sql.InsertInto(TableOrderLine,
			"ol_o_id", "ol_d_id", "ol_w_id", "ol_number", "ol_i_id", "ol_supply_w_id",
			"ol_delivery_d", "ol_quantity", "ol_amount", "ol_dist_info").Row(
			types.NewInt(oid), did, wid, types.NewInt(i+1), iid, swid,
			types.NewLong(-1), types.NewInt(l.Quantity), types.NewDouble(amount), val(rec, distInfo),
		)); err != nil {
			return sproc.Outcome{}, err
		}

		total += amount
	}

	p.TotalAmount = total * (1 - p.CDiscount) * (1 + p.WTax + p.DTax)
	return sproc.Ok(), nil
}
