package schema

import (
	"errors"
	"fmt"
)

// ErrDefinition reports a model declared with zero or multiple primary keys,
// or with duplicate field names.
var ErrDefinition = errors.New("invalid model definition")

// Schema is one model's table definition and field set.
type Schema struct {
	Name         string
	Table        string
	Fields       []*Field
	FieldsByName map[string]*Field
	PrimaryField *Field
}

// New builds a model definition from an ordered field list. Exactly one
// field must be declared as the primary key.
func New(name string, namer Namer, fields ...*Field) (*Schema, error) {
	if namer == nil {
		namer = NamingStrategy{}
	}

	s := &Schema{
		Name:         name,
		Table:        namer.TableName(name),
		Fields:       fields,
		FieldsByName: make(map[string]*Field, len(fields)),
	}

	for _, field := range fields {
		if _, ok := s.FieldsByName[field.Name]; ok {
			return nil, fmt.Errorf("%w: %s declares field %q twice", ErrDefinition, name, field.Name)
		}
		if field.DBName == "" {
			field.DBName = namer.ColumnName(s.Table, field.Name)
		}
		s.FieldsByName[field.Name] = field

		if field.PrimaryKey {
			if s.PrimaryField != nil {
				return nil, fmt.Errorf("%w: %s declares multiple primary keys", ErrDefinition, name)
			}
			s.PrimaryField = field
		}
	}

	if s.PrimaryField == nil {
		return nil, fmt.Errorf("%w: %s declares no primary key", ErrDefinition, name)
	}

	return s, nil
}

// LookUpField finds a field by name.
func (s *Schema) LookUpField(name string) *Field {
	return s.FieldsByName[name]
}

func (s Schema) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, s.Table)
}
