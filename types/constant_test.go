package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantGoVal(t *testing.T) {
	assert.Equal(t, 42, NewInt(42).AsGoVal())
	assert.Equal(t, int64(42), NewLong(42).AsGoVal())
	assert.Equal(t, 4.5, NewDouble(4.5).AsGoVal())
	assert.Equal(t, "hello", NewVarchar("hello").AsGoVal())
}

func TestConstantNumericEquality(t *testing.T) {
	pairs := [][2]Constant{
		{NewInt(3), NewLong(3)},
		{NewInt(3), NewDouble(3)},
		{NewLong(-7), NewDouble(-7)},
	}

	for _, p := range pairs {
		assert.True(t, p[0].Equals(p[1]), "%s == %s", p[0], p[1])
		assert.Equal(t, p[0].Hash(), p[1].Hash(), "hash of %s and %s", p[0], p[1])
	}

	assert.False(t, NewDouble(3.5).Equals(NewInt(3)))
	assert.False(t, NewVarchar("3").Equals(NewInt(3)))
}

func TestConstantCompare(t *testing.T) {
	assert.Equal(t, -1, NewInt(1).Compare(NewInt(2)))
	assert.Equal(t, 1, NewDouble(2.5).Compare(NewLong(2)))
	assert.Equal(t, 0, NewVarchar("abc").Compare(NewVarchar("abc")))
	assert.Equal(t, -1, NewVarchar("abc").Compare(NewVarchar("abd")))

	// numbers sort before strings
	assert.Equal(t, -1, NewInt(100).Compare(NewVarchar("1")))
	assert.Equal(t, 1, NewVarchar("1").Compare(NewDouble(100)))
}

func TestConstantCastTo(t *testing.T) {
	c, err := NewInt(7).CastTo(DOUBLE)
	require.NoError(t, err)
	assert.Equal(t, DOUBLE, c.Type())
	assert.Equal(t, 7.0, c.AsDouble())

	c, err = NewDouble(9.9).CastTo(INTEGER)
	require.NoError(t, err)
	assert.Equal(t, 9, c.AsInt())

	_, err = NewLong(1 << 40).CastTo(INTEGER)
	assert.ErrorIs(t, err, ErrIncompatibleType)

	_, err = NewVarchar("x").CastTo(BIGINT)
	assert.ErrorIs(t, err, ErrIncompatibleType)
}

func TestConstantString(t *testing.T) {
	assert.Equal(t, "12", NewInt(12).String())
	assert.Equal(t, "0.25", NewDouble(0.25).String())
	assert.Equal(t, "'bob'", NewVarchar("bob").String())
}
