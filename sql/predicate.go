package sql

import (
	"strings"

	"github.com/luigitni/detdb/types"
)

// Predicate specifies a condition that returns
// true or false for each ROW of a given scan.
// If the condition returns true, then
// the row satisfies the predicate.
// A Predicate is a conjunction of Terms; the empty predicate
// is satisfied by every row.
type Predicate struct {
	terms []Term
}

func NewPredicate(terms ...Term) Predicate {
	return Predicate{terms: append([]Term(nil), terms...)}
}

func (p *Predicate) ConjoinWith(other Predicate) {
	p.terms = append(p.terms, other.terms...)
}

func (p Predicate) IsEmpty() bool {
	return len(p.terms) == 0
}

func (p Predicate) Terms() []Term {
	return p.terms
}

func (p Predicate) IsSatisfied(s Scan) (bool, error) {
	for _, t := range p.terms {
		ok, err := t.IsSatisfied(s)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func (p Predicate) AppliesTo(schema Schema) bool {
	for _, t := range p.terms {
		if !t.AppliesTo(schema) {
			return false
		}
	}
	return true
}

func (p Predicate) EquatesWithConstant(fieldName string) (types.Constant, bool) {
	for _, t := range p.terms {
		if c, ok := t.EquatesWithConstant(fieldName); ok {
			return c, true
		}
	}

	return types.Constant{}, false
}

// Fields returns the field names the predicate refers to.
func (p Predicate) Fields() []string {
	var out []string
	for _, t := range p.terms {
		out = append(out, t.fields()...)
	}
	return out
}

func (p Predicate) String() string {
	var sb strings.Builder
	for i, t := range p.terms {
		sb.WriteString(t.String())
		if i != len(p.terms)-1 {
			sb.WriteString(" AND ")
		}
	}
	return sb.String()
}
