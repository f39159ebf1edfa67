package sql

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScan map[string]types.Constant

func (m mapScan) Val(f string) (types.Constant, error) {
	v, ok := m[f]
	if !ok {
		return types.Constant{}, errors.Newf("no field %s", f)
	}
	return v, nil
}

func (m mapScan) HasField(f string) bool {
	_, ok := m[f]
	return ok
}

func TestPredicateIsSatisfied(t *testing.T) {
	row := mapScan{
		"d_w_id": types.NewInt(1),
		"d_id":   types.NewInt(3),
		"d_name": types.NewVarchar("north"),
	}

	pred := NewPredicate(FieldEq("d_w_id", types.NewInt(1)), FieldEq("d_id", types.NewInt(3)))
	ok, err := pred.IsSatisfied(row)
	require.NoError(t, err)
	assert.True(t, ok)

	pred.ConjoinWith(NewPredicate(FieldEq("d_name", types.NewVarchar("south"))))
	ok, err = pred.IsSatisfied(row)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewPredicate().IsSatisfied(row)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = NewPredicate(FieldEq("missing", types.NewInt(1))).IsSatisfied(row)
	assert.Error(t, err)
}

func TestPredicateEquatesWithConstant(t *testing.T) {
	pred := NewPredicate(
		Eq(Const(types.NewInt(5)), Field("i_id")),
		Eq(Field("a"), Field("b")),
	)

	c, ok := pred.EquatesWithConstant("i_id")
	require.True(t, ok)
	assert.Equal(t, 5, c.AsInt())

	_, ok = pred.EquatesWithConstant("a")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"i_id", "a", "b"}, pred.Fields())
}

func TestStatementStrings(t *testing.T) {
	q := Select("w_tax").From("warehouse").Where(FieldEq("w_id", types.NewInt(1)))
	assert.Equal(t, "SELECT w_tax FROM warehouse WHERE w_id = 1", q.String())
	assert.Equal(t, CommandTypeQuery, q.Type())

	u := Update("stock").
		Set("s_quantity", Const(types.NewInt(40))).
		Set("s_ytd", Const(types.NewInt(5))).
		Where(FieldEq("s_i_id", types.NewInt(2)), FieldEq("s_w_id", types.NewInt(1)))
	assert.Equal(t, "UPDATE stock SET s_quantity = 40, s_ytd = 5 WHERE s_i_id = 2 AND s_w_id = 1", u.String())
	assert.Equal(t, CommandTypeDML, u.Type())

	ins := InsertInto("new_order", "no_o_id", "no_d_id", "no_w_id").
		Row(types.NewInt(3001), types.NewInt(1), types.NewInt(1))
	assert.Equal(t, "INSERT INTO new_order (no_o_id, no_d_id, no_w_id) VALUES (3001, 1, 1)", ins.String())

	d := DeleteFrom("new_order").Where(FieldEq("no_o_id", types.NewInt(3001)))
	assert.Equal(t, "DELETE FROM new_order WHERE no_o_id = 3001", d.String())
}

func TestBuildersDoNotAlias(t *testing.T) {
	base := Update("item").Set("i_price", Const(types.NewDouble(1)))
	a := base.Set("i_name", Const(types.NewVarchar("a")))
	b := base.Set("i_data", Const(types.NewVarchar("b")))

	assert.Len(t, base.Assignments, 1)
	assert.Equal(t, "i_name", a.Assignments[1].Field)
	assert.Equal(t, "i_data", b.Assignments[1].Field)
}
