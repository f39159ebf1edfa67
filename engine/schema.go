package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/types"
)

type fieldInfo struct {
	Type  types.FieldType
	Index int
}

// Schema is the record schema of a table.
// It contains the name and type of each field of the table.
type Schema struct {
	fields []string
	info   map[string]fieldInfo
}

func NewSchema() Schema {
	return Schema{
		fields: make([]string, 0),
		info:   map[string]fieldInfo{},
	}
}

func (s *Schema) AddField(name string, typ types.FieldType) {
	if _, ok := s.info[name]; ok {
		return
	}
	s.fields = append(s.fields, name)
	s.info[name] = fieldInfo{
		Type:  typ,
		Index: len(s.fields) - 1,
	}
}

func (s *Schema) AddIntField(name string) {
	s.AddField(name, types.INTEGER)
}

func (s *Schema) AddLongField(name string) {
	s.AddField(name, types.BIGINT)
}

func (s *Schema) AddDoubleField(name string) {
	s.AddField(name, types.DOUBLE)
}

func (s *Schema) AddVarcharField(name string) {
	s.AddField(name, types.VARCHAR)
}

// Add copies the field fname from schema.
func (s *Schema) Add(fname string, schema Schema) {
	s.AddField(fname, schema.Type(fname))
}

func (s *Schema) AddAll(schema Schema) {
	for _, f := range schema.fields {
		s.Add(f, schema)
	}
}

func (s Schema) HasField(fname string) bool {
	_, ok := s.info[fname]
	return ok
}

func (s Schema) Type(fname string) types.FieldType {
	return s.info[fname].Type
}

func (s Schema) Fields() []string {
	return s.fields
}

func (s Schema) index(fname string) (int, error) {
	fi, ok := s.info[fname]
	if !ok {
		return 0, errors.Wrapf(ErrNoField, "%s", fname)
	}
	return fi.Index, nil
}

// cast converts v to the type of the field fname.
func (s Schema) cast(fname string, v types.Constant) (types.Constant, error) {
	fi, ok := s.info[fname]
	if !ok {
		return types.Constant{}, errors.Wrapf(ErrNoField, "%s", fname)
	}

	c, err := v.CastTo(fi.Type)
	if err != nil {
		return types.Constant{}, errors.WithSecondaryError(errors.Wrapf(ErrBadSemantic, "field %s", fname), err)
	}
	return c, nil
}
