package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

type FieldType int8

const (
	INTEGER FieldType = iota
	BIGINT
	DOUBLE
	VARCHAR
)

var typeNames = [...]string{
	INTEGER: "INTEGER",
	BIGINT:  "BIGINT",
	DOUBLE:  "DOUBLE",
	VARCHAR: "VARCHAR",
}

func (t FieldType) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("FieldType(%d)", t)
	}
	return typeNames[t]
}

// IsNumeric reports whether values of the type can be compared numerically.
func (t FieldType) IsNumeric() bool {
	return t == INTEGER || t == BIGINT || t == DOUBLE
}

var ErrIncompatibleType = errors.New("incompatible constant type")

// Constant is an immutable typed value.
// Constants are the values stored in records, the operands of predicates
// and the entries of primary keys.
type Constant struct {
	typ    FieldType
	intVal int64
	dblVal float64
	strVal string
}

func NewInt(v int) Constant {
	return Constant{typ: INTEGER, intVal: int64(int32(v))}
}

func NewLong(v int64) Constant {
	return Constant{typ: BIGINT, intVal: v}
}

func NewDouble(v float64) Constant {
	return Constant{typ: DOUBLE, dblVal: v}
}

func NewVarchar(s string) Constant {
	return Constant{typ: VARCHAR, strVal: s}
}

// Zero returns the default value for the given type.
func Zero(t FieldType) Constant {
	return Constant{typ: t}
}

func (c Constant) Type() FieldType {
	return c.typ
}

func (c Constant) AsInt() int {
	switch c.typ {
	case DOUBLE:
		return int(c.dblVal)
	case VARCHAR:
		return 0
	}
	return int(c.intVal)
}

func (c Constant) AsLong() int64 {
	switch c.typ {
	case DOUBLE:
		return int64(c.dblVal)
	case VARCHAR:
		return 0
	}
	return c.intVal
}

func (c Constant) AsDouble() float64 {
	switch c.typ {
	case DOUBLE:
		return c.dblVal
	case VARCHAR:
		return 0
	}
	return float64(c.intVal)
}

func (c Constant) AsString() string {
	if c.typ == VARCHAR {
		return c.strVal
	}
	return c.String()
}

// AsGoVal returns the native Go value wrapped by the constant:
// int for INTEGER, int64 for BIGINT, float64 for DOUBLE and string for VARCHAR.
func (c Constant) AsGoVal() any {
	switch c.typ {
	case INTEGER:
		return int(c.intVal)
	case BIGINT:
		return c.intVal
	case DOUBLE:
		return c.dblVal
	default:
		return c.strVal
	}
}

// CastTo converts the constant to the given type.
// Numeric types convert into each other; VARCHAR only converts to itself.
func (c Constant) CastTo(t FieldType) (Constant, error) {
	if c.typ == t {
		return c, nil
	}

	if !c.typ.IsNumeric() || !t.IsNumeric() {
		return Constant{}, errors.Wrapf(ErrIncompatibleType, "cannot cast %s to %s", c.typ, t)
	}

	switch t {
	case INTEGER:
		v := c.AsLong()
		if v > math.MaxInt32 || v < math.MinInt32 {
			return Constant{}, errors.Wrapf(ErrIncompatibleType, "%s overflows %s", c, t)
		}
		return NewInt(int(v)), nil
	case BIGINT:
		return NewLong(c.AsLong()), nil
	default:
		return NewDouble(c.AsDouble()), nil
	}
}

func (c Constant) isIntegral() bool {
	return c.typ == INTEGER || c.typ == BIGINT
}

// Compare orders constants. Numeric constants are compared by value regardless
// of their concrete type; every numeric constant sorts before every VARCHAR.
func (c Constant) Compare(other Constant) int {
	switch {
	case c.typ == VARCHAR && other.typ == VARCHAR:
		return strings.Compare(c.strVal, other.strVal)
	case c.typ == VARCHAR:
		return 1
	case other.typ == VARCHAR:
		return -1
	case c.isIntegral() && other.isIntegral():
		return compareOrdered(c.intVal, other.intVal)
	default:
		return compareOrdered(c.AsDouble(), other.AsDouble())
	}
}

func (c Constant) Equals(other Constant) bool {
	return c.Compare(other) == 0
}

// Hash is consistent with Equals: numeric constants holding the same
// value hash identically whatever their type.
func (c Constant) Hash() uint64 {
	var buf [9]byte
	switch {
	case c.typ == VARCHAR:
		buf[0] = 's'
		d := xxhash.New()
		d.Write(buf[:1])
		d.WriteString(c.strVal)
		return d.Sum64()
	case c.isIntegral():
		buf[0] = 'n'
		binary.LittleEndian.PutUint64(buf[1:], uint64(c.intVal))
	case c.dblVal == math.Trunc(c.dblVal) && math.Abs(c.dblVal) < 1<<63:
		buf[0] = 'n'
		binary.LittleEndian.PutUint64(buf[1:], uint64(int64(c.dblVal)))
	default:
		buf[0] = 'f'
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(c.dblVal))
	}
	return xxhash.Sum64(buf[:])
}

func (c Constant) String() string {
	switch c.typ {
	case INTEGER, BIGINT:
		return strconv.FormatInt(c.intVal, 10)
	case DOUBLE:
		return strconv.FormatFloat(c.dblVal, 'f', -1, 64)
	default:
		return fmt.Sprintf("'%s'", c.strVal)
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
