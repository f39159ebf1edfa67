package sql

import "github.com/luigitni/detdb/types"

// Scan is the view of a record an Expression is evaluated against.
type Scan interface {
	Val(fieldName string) (types.Constant, error)
}

type Schema interface {
	HasField(fieldName string) bool
}

// Expression is either a field name or a constant.
type Expression struct {
	val     types.Constant
	fname   string
	isField bool
}

// Field returns an expression that evaluates to the value of the field.
func Field(name string) Expression {
	return Expression{fname: name, isField: true}
}

// Const returns an expression that evaluates to c.
func Const(c types.Constant) Expression {
	return Expression{val: c}
}

func (exp Expression) IsFieldName() bool {
	return exp.isField
}

func (exp Expression) AsConstant() types.Constant {
	return exp.val
}

func (exp Expression) AsFieldName() string {
	return exp.fname
}

func (exp Expression) Evaluate(scan Scan) (types.Constant, error) {
	if !exp.isField {
		return exp.val, nil
	}

	return scan.Val(exp.fname)
}

func (exp Expression) AppliesTo(schema Schema) bool {
	if !exp.isField {
		return true
	}

	return schema.HasField(exp.fname)
}

func (exp Expression) String() string {
	if !exp.isField {
		return exp.val.String()
	}

	return exp.fname
}
