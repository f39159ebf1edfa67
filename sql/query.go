package sql

import "strings"

// Query is a SELECT statement:
// SELECT <fields> FROM <tables> [WHERE <predicate>]
type Query struct {
	QueryCommandType
	fields    []string
	tables    []string
	predicate Predicate
}

// Select starts a query projecting the given fields.
func Select(fields ...string) Query {
	return Query{fields: append([]string(nil), fields...)}
}

func (qd Query) From(tables ...string) Query {
	qd.tables = append([]string(nil), tables...)
	return qd
}

func (qd Query) Where(terms ...Term) Query {
	pred := NewPredicate(qd.predicate.terms...)
	pred.ConjoinWith(NewPredicate(terms...))
	qd.predicate = pred
	return qd
}

func (qd Query) Tables() []string {
	return qd.tables
}

func (qd Query) Fields() []string {
	return qd.fields
}

func (qd Query) Predicate() Predicate {
	return qd.predicate
}

func (qd Query) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(qd.fields, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(qd.tables, ", "))

	if qd.predicate.IsEmpty() {
		return sb.String()
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(qd.predicate.String())
	return sb.String()
}
