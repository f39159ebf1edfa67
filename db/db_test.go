package db

import (
	"testing"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(config.NewTestConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	schema := engine.NewSchema()
	schema.AddIntField("w_id")
	schema.AddVarcharField("w_name")
	_, err = d.Catalog().CreateTable("warehouse", schema, "w_id")
	require.NoError(t, err)
	return d
}

func TestExec(t *testing.T) {
	d := openTestDB(t)

	for i, name := range []string{"north", "south"} {
		res, err := d.Exec(sql.InsertInto("warehouse", "w_id", "w_name").Row(types.NewInt(i+1), types.NewVarchar(name)))
		require.NoError(t, err)
		assert.Equal(t, "1", res.String())
	}

	out, err := d.Exec(sql.Select("w_id", "w_name").From("warehouse").Where(sql.FieldEq("w_id", types.NewInt(2))))
	require.NoError(t, err)

	rows, ok := out.(Rows)
	require.True(t, ok)
	require.Equal(t, 1, rows.Len())
	v, _ := rows.Val(0, "w_name")
	assert.Equal(t, "south", v.AsString())

	// failed statements leave no locks and no changes behind
	_, err = d.Exec(sql.InsertInto("warehouse", "w_id").Row(types.NewVarchar("x")))
	assert.ErrorIs(t, err, engine.ErrBadSemantic)
	assert.Zero(t, d.LockTable().Len())

	ti, err := d.Catalog().TableInfo("warehouse", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ti.RecordCount())
}

func TestOpenValidates(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.ConcurrencyMode = "optimistic"

	_, err := Open(cfg, nil)
	assert.Error(t, err)
}
