package engine

import (
	"testing"

	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/tx"
	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockCatalog(t *testing.T) *Catalog {
	t.Helper()
	schema := NewSchema()
	schema.AddIntField("s_i_id")
	schema.AddIntField("s_w_id")
	schema.AddIntField("s_quantity")
	schema.AddDoubleField("s_ytd")
	schema.AddVarcharField("s_data")

	c := NewCatalog()
	_, err := c.CreateTable("stock", schema, "s_i_id", "s_w_id")
	require.NoError(t, err)
	return c
}

func insertStock(t *testing.T, p *Planner, x tx.Transaction, iid, wid, qty int) {
	t.Helper()
	n, err := p.ExecuteUpdate(
		sql.InsertInto("stock", "s_i_id", "s_w_id", "s_quantity", "s_ytd", "s_data").
			Row(types.NewInt(iid), types.NewInt(wid), types.NewInt(qty), types.NewInt(0), types.NewVarchar("data")),
		x,
	)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func queryQuantity(t *testing.T, p *Planner, x tx.Transaction, iid, wid int) int {
	t.Helper()
	s, err := p.ExecuteQuery(
		sql.Select("s_quantity").From("stock").
			Where(sql.FieldEq("s_i_id", types.NewInt(iid)), sql.FieldEq("s_w_id", types.NewInt(wid))),
		x,
	)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Next())
	v, err := s.Val("s_quantity")
	require.NoError(t, err)
	return v.AsInt()
}

func TestPlannerInsertQueryUpdateDelete(t *testing.T) {
	c := stockCatalog(t)
	p := NewPlanner(c)
	x := newTx(t, newTestManager(tx.ModeConservative), false)

	for i := 1; i <= 5; i++ {
		insertStock(t, p, x, i, 1, 10*i)
	}
	assert.Equal(t, 30, queryQuantity(t, p, x, 3, 1))

	n, err := p.ExecuteUpdate(
		sql.Update("stock").
			Set("s_quantity", sql.Const(types.NewInt(99))).
			Set("s_ytd", sql.Field("s_quantity")).
			Where(sql.FieldEq("s_i_id", types.NewInt(3)), sql.FieldEq("s_w_id", types.NewInt(1))),
		x,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 99, queryQuantity(t, p, x, 3, 1))

	// a full scan filters on non key fields
	s, err := p.ExecuteQuery(sql.Select("s_i_id", "s_ytd").From("stock").Where(sql.FieldEq("s_ytd", types.NewDouble(99))), x)
	require.NoError(t, err)
	require.NoError(t, s.Next())
	iid, err := s.Val("s_i_id")
	require.NoError(t, err)
	assert.Equal(t, 3, iid.AsInt())
	_, err = s.Val("s_data")
	assert.ErrorIs(t, err, ErrNoField)
	ok, err := HasNext(s)
	require.NoError(t, err)
	assert.False(t, ok)
	s.Close()

	n, err = p.ExecuteUpdate(sql.DeleteFrom("stock").Where(sql.FieldEq("s_w_id", types.NewInt(1))), x)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ti, err := c.TableInfo("stock", x)
	require.NoError(t, err)
	assert.Zero(t, ti.RecordCount())
}

func TestPlannerBadSemantic(t *testing.T) {
	c := stockCatalog(t)
	p := NewPlanner(c)
	m := newTestManager(tx.ModeConservative)
	x := newTx(t, m, false)

	queries := map[string]sql.Query{
		"unknown table": sql.Select("a").From("nope"),
		"join":          sql.Select("s_i_id").From("stock", "item"),
		"unknown field": sql.Select("s_color").From("stock"),
		"unknown where": sql.Select("s_i_id").From("stock").Where(sql.FieldEq("s_color", types.NewInt(1))),
	}
	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			_, err := p.ExecuteQuery(q, x)
			assert.ErrorIs(t, err, ErrBadSemantic)
		})
	}

	cmds := map[string]sql.Command{
		"arity":         sql.InsertInto("stock", "s_i_id", "s_w_id").Row(types.NewInt(1)),
		"type mismatch": sql.InsertInto("stock", "s_i_id").Row(types.NewVarchar("one")),
		"unknown set":   sql.Update("stock").Set("s_color", sql.Const(types.NewInt(1))),
		"query":         sql.Select("s_i_id").From("stock"),
	}
	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			_, err := p.ExecuteUpdate(cmd, x)
			assert.ErrorIs(t, err, ErrBadSemantic)
		})
	}

	ro := newTx(t, m, true)
	_, err := p.ExecuteUpdate(sql.InsertInto("stock", "s_i_id").Row(types.NewInt(1)), ro)
	assert.ErrorIs(t, err, ErrBadSemantic)
}

func TestCatalog(t *testing.T) {
	c := stockCatalog(t)

	_, err := c.CreateTable("stock", NewSchema())
	assert.ErrorIs(t, err, ErrTableExists)

	_, err = c.CreateTable("item", NewSchema(), "i_id")
	assert.ErrorIs(t, err, ErrNoField)

	assert.Equal(t, []string{"stock"}, c.Tables())
}
