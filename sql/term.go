package sql

import (
	"fmt"

	"github.com/luigitni/detdb/types"
)

// Term is an equality comparison between two Expressions.
type Term struct {
	lhs Expression
	rhs Expression
}

func Eq(lhs Expression, rhs Expression) Term {
	return Term{lhs: lhs, rhs: rhs}
}

// FieldEq returns the term "field = c".
func FieldEq(field string, c types.Constant) Term {
	return Eq(Field(field), Const(c))
}

func (t Term) IsSatisfied(s Scan) (bool, error) {
	lc, err := t.lhs.Evaluate(s)
	if err != nil {
		return false, err
	}

	rc, err := t.rhs.Evaluate(s)
	if err != nil {
		return false, err
	}

	return lc.Equals(rc), nil
}

func (t Term) AppliesTo(schema Schema) bool {
	return t.lhs.AppliesTo(schema) && t.rhs.AppliesTo(schema)
}

// EquatesWithConstant returns c if the term is of the form "fieldName = c" or "c = fieldName".
func (t Term) EquatesWithConstant(fieldName string) (types.Constant, bool) {
	if t.lhs.IsFieldName() && t.lhs.fname == fieldName && !t.rhs.IsFieldName() {
		return t.rhs.AsConstant(), true
	}

	if t.rhs.IsFieldName() && t.rhs.fname == fieldName && !t.lhs.IsFieldName() {
		return t.lhs.AsConstant(), true
	}

	return types.Constant{}, false
}

func (t Term) fields() []string {
	var out []string
	if t.lhs.IsFieldName() {
		out = append(out, t.lhs.fname)
	}
	if t.rhs.IsFieldName() {
		out = append(out, t.rhs.fname)
	}
	return out
}

func (t Term) String() string {
	return fmt.Sprintf("%s = %s", t.lhs, t.rhs)
}
