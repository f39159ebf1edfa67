package tpcc

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/sproc"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/test"
	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTPCC(t *testing.T, mode string) (*db.DB, *Workload) {
	t.Helper()
	cfg := test.Config(mode)
	d := test.OpenDB(t, cfg)

	require.NoError(t, Load(d, cfg.TPCC, rand.New(rand.NewSource(1))))
	return d, NewWorkload(d.Env(), cfg.TPCC)
}

func queryRows(t *testing.T, d *db.DB, q sql.Query) db.Rows {
	t.Helper()
	out, err := d.Exec(q)
	require.NoError(t, err)
	return out.(db.Rows)
}

func queryOne(t *testing.T, d *db.DB, q sql.Query) types.Constant {
	t.Helper()
	rows := queryRows(t, d, q)
	require.Equal(t, 1, rows.Len(), q.String())
	v, ok := rows.Val(0, q.Fields()[0])
	require.True(t, ok)
	return v
}

func stockQuery(field string, iid, wid int) sql.Query {
	return sql.Select(field).From(TableStock).Where(
		sql.FieldEq("s_i_id", types.NewInt(iid)),
		sql.FieldEq("s_w_id", types.NewInt(wid)),
	)
}

func nextOrderID(t *testing.T, d *db.DB, wid, did int) int {
	t.Helper()
	return queryOne(t, d, sql.Select("d_next_o_id").From(TableDistrict).Where(
		sql.FieldEq("d_w_id", types.NewInt(wid)),
		sql.FieldEq("d_id", types.NewInt(did)),
	)).AsInt()
}

func wrapStock(q, ordered int) int {
	q -= ordered
	if q < 10 {
		q += 91
	}
	return q
}

func TestLoad(t *testing.T) {
	d, _ := openTPCC(t, config.ModeConservative)
	cfg := d.Config().TPCC

	counts := map[string]int{
		TableWarehouse: cfg.NumWarehouses,
		TableDistrict:  cfg.NumWarehouses * cfg.DistrictsPerWarehouse,
		TableCustomer:  cfg.NumWarehouses * cfg.DistrictsPerWarehouse * cfg.CustomersPerDistrict,
		TableItem:      cfg.NumItems,
		TableStock:     cfg.NumWarehouses * cfg.NumItems,
		TableOrders:    0,
		TableNewOrder:  0,
		TableOrderLine: 0,
	}
	for table, n := range counts {
		ti, err := d.Catalog().TableInfo(table, nil)
		require.NoError(t, err)
		assert.Equal(t, n, ti.RecordCount(), table)
	}

	assert.Equal(t, cfg.InitialOrderID, nextOrderID(t, d, 1, 7))
	test.AssertNoLocks(t, d.LockTable())
}

func TestTwoNewOrdersOnOneDistrict(t *testing.T) {
	d, w := openTPCC(t, config.ModeConservative)

	q1 := queryOne(t, d, stockQuery("s_quantity", 1, 1)).AsInt()
	q2 := queryOne(t, d, stockQuery("s_quantity", 2, 1)).AsInt()

	p1 := w.NewOrder()
	require.NoError(t, p1.Prepare(NewOrderArgs(1, 1, 1, OrderLine{1, 1, 5}, OrderLine{2, 1, 5})...))
	p2 := w.NewOrder()
	require.NoError(t, p2.Prepare(NewOrderArgs(1, 1, 2, OrderLine{2, 1, 3})...))
	require.Less(t, p1.Transaction().Number(), p2.Transaction().Number())

	rs1 := p1.Execute()
	require.True(t, rs1.IsCommitted(), rs1.AbortReason())
	rs2 := p2.Execute()
	require.True(t, rs2.IsCommitted(), rs2.AbortReason())

	oid1, _ := rs1.Record().Val("o_id")
	oid2, _ := rs2.Record().Val("o_id")
	assert.Equal(t, 3001, oid1.AsInt())
	assert.Equal(t, 3002, oid2.AsInt())

	// p2 ordered from the stock p1 left behind
	assert.Equal(t, wrapStock(q1, 5), queryOne(t, d, stockQuery("s_quantity", 1, 1)).AsInt())
	assert.Equal(t, wrapStock(wrapStock(q2, 5), 3), queryOne(t, d, stockQuery("s_quantity", 2, 1)).AsInt())
	assert.Equal(t, 8, queryOne(t, d, stockQuery("s_ytd", 2, 1)).AsInt())
	assert.Equal(t, 2, queryOne(t, d, stockQuery("s_order_cnt", 2, 1)).AsInt())

	assert.Equal(t, 3003, nextOrderID(t, d, 1, 1))
	assert.Equal(t, 2, queryRows(t, d, sql.Select("no_o_id").From(TableNewOrder)).Len())
	assert.Equal(t, 3, queryRows(t, d, sql.Select("ol_o_id").From(TableOrderLine)).Len())

	lines := queryRows(t, d, sql.Select("ol_number", "ol_dist_info").From(TableOrderLine).Where(
		sql.FieldEq("ol_o_id", types.NewInt(3001)),
	))
	require.Equal(t, 2, lines.Len())
	distInfo := queryOne(t, d, stockQuery("s_dist_01", 1, 1)).AsString()
	found := false
	for i := 0; i < lines.Len(); i++ {
		n, _ := lines.Val(i, "ol_number")
		if n.AsInt() == 1 {
			info, _ := lines.Val(i, "ol_dist_info")
			assert.Equal(t, distInfo, info.AsString())
			found = true
		}
	}
	assert.True(t, found)

	price1 := queryOne(t, d, sql.Select("i_price").From(TableItem).Where(sql.FieldEq("i_id", types.NewInt(1)))).AsDouble()
	price2 := queryOne(t, d, sql.Select("i_price").From(TableItem).Where(sql.FieldEq("i_id", types.NewInt(2)))).AsDouble()
	p := p1.ParamHelper().(*NewOrderParams)
	want := (5*price1 + 5*price2) * (1 - p.CDiscount) * (1 + p.WTax + p.DTax)
	total, _ := rs1.Record().Val("total_amount")
	assert.InDelta(t, want, total.AsDouble(), 1e-9)

	test.AssertNoLocks(t, d.LockTable())
}

func TestConcurrentNewOrders(t *testing.T) {
	d, w := openTPCC(t, config.ModeConservative)

	const n = 20
	rng := rand.New(rand.NewSource(7))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		// every order hits item 1 of district 1 plus a random item
		sp := w.NewOrder()
		require.NoError(t, sp.Prepare(NewOrderArgs(1, 1, i%30+1,
			OrderLine{1, 1, 1},
			OrderLine{rng.Intn(100) + 1, 1, 2},
		)...))

		wg.Add(1)
		go func() {
			defer wg.Done()
			rs := sp.Execute()
			assert.True(t, rs.IsCommitted(), rs.AbortReason())
		}()
	}
	wg.Wait()

	assert.Equal(t, n, queryRows(t, d, sql.Select("o_id").From(TableOrders)).Len())
	assert.Equal(t, 2*n, queryRows(t, d, sql.Select("ol_o_id").From(TableOrderLine)).Len())
	// orders may lock the district out of id order
	assert.Equal(t, 3001+n, nextOrderID(t, d, 1, 1))
	assert.GreaterOrEqual(t, queryOne(t, d, stockQuery("s_ytd", 1, 1)).AsInt(), n)
	assert.GreaterOrEqual(t, queryOne(t, d, stockQuery("s_order_cnt", 1, 1)).AsInt(), n)
	test.AssertNoLocks(t, d.LockTable())
}

func TestNewOrderUnknownItemAborts(t *testing.T) {
	d, w := openTPCC(t, config.ModeConservative)
	q1 := queryOne(t, d, stockQuery("s_quantity", 1, 1)).AsInt()

	sp := w.NewOrder()
	require.NoError(t, sp.Prepare(NewOrderArgs(1, 2, 1, OrderLine{1, 1, 5}, OrderLine{1000, 1, 1})...))
	rs := sp.Execute()

	assert.False(t, rs.IsCommitted())
	assert.Equal(t, "item 1000 not found", rs.AbortReason())

	// nothing of the order survives
	assert.Equal(t, q1, queryOne(t, d, stockQuery("s_quantity", 1, 1)).AsInt())
	assert.Equal(t, 3001, nextOrderID(t, d, 1, 2))
	assert.Zero(t, queryRows(t, d, sql.Select("o_id").From(TableOrders)).Len())
	assert.Zero(t, queryRows(t, d, sql.Select("ol_o_id").From(TableOrderLine)).Len())
	test.AssertNoLocks(t, d.LockTable())
}

func TestNewOrderBadParameters(t *testing.T) {
	_, w := openTPCC(t, config.ModeConservative)

	cases := map[string][]any{
		"not an int":        {1, 1, 1, "1"},
		"too few":           {1, 1},
		"no lines":          NewOrderArgs(1, 1, 1),
		"missing line args": {1, 1, 1, 2, 1, 1, 1},
		"unknown warehouse": NewOrderArgs(2, 1, 1, OrderLine{1, 2, 1}),
		"unknown district":  NewOrderArgs(1, 11, 1, OrderLine{1, 1, 1}),
	}

	lines := make([]OrderLine, 16)
	for i := range lines {
		lines[i] = OrderLine{i + 1, 1, 1}
	}
	cases["too many lines"] = NewOrderArgs(1, 1, 1, lines...)

	for name, args := range cases {
		sp := w.NewOrder()
		assert.Error(t, sp.Prepare(args...), name)
		assert.Nil(t, sp.Transaction(), name)
	}
}

func TestNewOrderSerializable(t *testing.T) {
	d, w := openTPCC(t, config.ModeSerializable)

	sp, args := w.Next(rand.New(rand.NewSource(3)))
	require.NoError(t, sp.Prepare(args...))
	rs := sp.Execute()

	require.True(t, rs.IsCommitted(), rs.AbortReason())
	assert.Equal(t, 1, queryRows(t, d, sql.Select("o_id").From(TableOrders)).Len())
	test.AssertNoLocks(t, d.LockTable())
}

func TestNewOrderKeys(t *testing.T) {
	_, w := openTPCC(t, config.ModeConservative)
	no := &newOrder{w: w, p: &NewOrderParams{maxOLCount: 15}}
	require.NoError(t, no.p.PrepareParameters(NewOrderArgs(1, 3, 4, OrderLine{7, 1, 2}, OrderLine{8, 1, 1})...))

	b := sproc.NewKeySetBuilder()
	require.NoError(t, no.prepareKeys(b))
	read, write := b.ReadKeys(), b.WriteKeys()

	// warehouse, district, customer, 2 items, 2 stocks
	assert.Len(t, read, 7)
	// district, orders, new_order, 2 stocks, 2 order lines
	assert.Len(t, write, 7)

	district := sql.NewKeyBuilder(TableDistrict).Add("d_w_id", types.NewInt(1)).Add("d_id", types.NewInt(3)).Build()
	assert.Contains(t, read, district)
	assert.Contains(t, write, district)

	line := sql.NewKeyBuilder(TableOrderLine).
		Add("ol_w_id", types.NewInt(1)).
		Add("ol_d_id", types.NewInt(3)).
		Add("ol_o_id", types.NewInt(3001)).
		Add("ol_number", types.NewInt(2)).
		Build()
	found := false
	for _, k := range write {
		if k.Equals(line) {
			found = true
		}
	}
	assert.True(t, found)
}
