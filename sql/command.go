package sql

import (
	"fmt"
	"strings"

	"github.com/luigitni/detdb/types"
)

type CommandType byte

const (
	// Query Command Type
	CommandTypeQuery CommandType = iota
	// Data Manipulation Language statement (INSERT, UPDATE, DELETE)
	CommandTypeDML
)

type QueryCommandType struct{}

func (qct QueryCommandType) Type() CommandType {
	return CommandTypeQuery
}

type DMLCommandType struct{}

func (dml DMLCommandType) Type() CommandType {
	return CommandTypeDML
}

type Command interface {
	Type() CommandType
	String() string
}

// InsertCommand is
// INSERT INTO <table> ( <fields> ) VALUES ( <values> )
type InsertCommand struct {
	DMLCommandType
	TableName string
	Fields    []string
	Values    []types.Constant
}

func InsertInto(table string, fields ...string) InsertCommand {
	return InsertCommand{
		TableName: table,
		Fields:    append([]string(nil), fields...),
	}
}

// Row sets the values to insert, one per field.
func (ic InsertCommand) Row(values ...types.Constant) InsertCommand {
	ic.Values = append([]types.Constant(nil), values...)
	return ic
}

func (ic InsertCommand) String() string {
	vals := make([]string, len(ic.Values))
	for i, v := range ic.Values {
		vals[i] = v.String()
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ic.TableName, strings.Join(ic.Fields, ", "), strings.Join(vals, ", "))
}

// DeleteCommand is
// DELETE FROM <table> [WHERE <predicate>]
type DeleteCommand struct {
	DMLCommandType
	TableName string
	Predicate Predicate
}

func DeleteFrom(table string) DeleteCommand {
	return DeleteCommand{
		TableName: table,
		Predicate: Predicate{},
	}
}

func (dc DeleteCommand) Where(terms ...Term) DeleteCommand {
	pred := NewPredicate(dc.Predicate.terms...)
	pred.ConjoinWith(NewPredicate(terms...))
	dc.Predicate = pred
	return dc
}

func (dc DeleteCommand) String() string {
	s := "DELETE FROM " + dc.TableName
	if !dc.Predicate.IsEmpty() {
		s += " WHERE " + dc.Predicate.String()
	}
	return s
}

// Assignment is a "field = expression" clause of an UPDATE.
type Assignment struct {
	Field string
	Value Expression
}

// UpdateCommand is
// UPDATE <table> SET <field> = <expression> [, ...] [WHERE <predicate>]
type UpdateCommand struct {
	DMLCommandType
	TableName   string
	Assignments []Assignment
	Predicate   Predicate
}

func Update(table string) UpdateCommand {
	return UpdateCommand{
		TableName: table,
		Predicate: Predicate{},
	}
}

func (uc UpdateCommand) Set(field string, expression Expression) UpdateCommand {
	assignments := make([]Assignment, len(uc.Assignments), len(uc.Assignments)+1)
	copy(assignments, uc.Assignments)
	uc.Assignments = append(assignments, Assignment{Field: field, Value: expression})
	return uc
}

func (uc UpdateCommand) Where(terms ...Term) UpdateCommand {
	pred := NewPredicate(uc.Predicate.terms...)
	pred.ConjoinWith(NewPredicate(terms...))
	uc.Predicate = pred
	return uc
}

func (uc UpdateCommand) String() string {
	sets := make([]string, len(uc.Assignments))
	for i, a := range uc.Assignments {
		sets[i] = fmt.Sprintf("%s = %s", a.Field, a.Value)
	}

	s := fmt.Sprintf("UPDATE %s SET %s", uc.TableName, strings.Join(sets, ", "))
	if !uc.Predicate.IsEmpty() {
		s += " WHERE " + uc.Predicate.String()
	}
	return s
}
