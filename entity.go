package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/encode/orm/clause"
	"github.com/encode/orm/gateway"
	"github.com/encode/orm/schema"
)

// Entity is one model instance: a bag of attribute values keyed by field
// name. Attributes holding relational fields contain *Entity values; a
// foreign key loaded without an eager join holds a placeholder entity
// carrying only the primary key.
type Entity struct {
	model *Model
	attrs map[string]interface{}
}

// New builds an unsaved entity from attribute values. The pseudo name
// "pk" aliases the primary key field. Unknown names are rejected.
func (m *Model) New(values Values) (*Entity, error) {
	entity := &Entity{
		model: m,
		attrs: make(map[string]interface{}, len(values)),
	}

	for name, value := range values {
		if name == "pk" {
			name = m.schema.PrimaryField.Name
		}
		if err := entity.SetAttr(name, value); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// Model returns the entity's model.
func (e *Entity) Model() *Model { return e.model }

// SetAttr assigns one attribute. Assigning a bare value to a relational
// field expands it into a placeholder entity of the target model holding
// that value as its primary key.
func (e *Entity) SetAttr(name string, value interface{}) error {
	field := e.model.schema.LookUpField(name)
	if field == nil {
		return fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, e.model.schema.Name, name)
	}

	if field.Relational() && value != nil {
		if related, ok := value.(*Entity); ok {
			e.attrs[name] = related
			return nil
		}

		target, err := e.model.target(field)
		if err != nil {
			return err
		}
		placeholder, err := target.New(Values{target.schema.PrimaryField.Name: value})
		if err != nil {
			return err
		}
		e.attrs[name] = placeholder
		return nil
	}

	e.attrs[name] = value
	return nil
}

// Attr returns one attribute value and whether it has been assigned.
func (e *Entity) Attr(name string) (interface{}, bool) {
	if name == "pk" {
		name = e.model.schema.PrimaryField.Name
	}
	value, ok := e.attrs[name]
	return value, ok
}

// PK returns the primary key value, or nil when unassigned.
func (e *Entity) PK() interface{} {
	return e.attrs[e.model.schema.PrimaryField.Name]
}

// SetPK assigns the primary key value.
func (e *Entity) SetPK(value interface{}) {
	e.attrs[e.model.schema.PrimaryField.Name] = value
}

// Related returns the entity held by a relational attribute.
func (e *Entity) Related(name string) (*Entity, bool) {
	related, ok := e.attrs[name].(*Entity)
	return related, ok
}

// Equal reports whether both entities belong to the same model and agree
// on every assigned attribute, comparing related entities recursively.
func (e *Entity) Equal(other *Entity) bool {
	if other == nil || e.model != other.model {
		return false
	}
	if len(e.attrs) != len(other.attrs) {
		return false
	}

	for name, value := range e.attrs {
		otherValue, ok := other.attrs[name]
		if !ok {
			return false
		}

		related, relatedOK := value.(*Entity)
		otherRelated, otherOK := otherValue.(*Entity)
		if relatedOK != otherOK {
			return false
		}
		if relatedOK {
			if !related.Equal(otherRelated) {
				return false
			}
			continue
		}

		if !reflect.DeepEqual(value, otherValue) {
			return false
		}
	}
	return true
}

// Update validates the given values, writes them to the row identified
// by the entity's primary key and mirrors them onto the entity.
func (e *Entity) Update(ctx context.Context, values Values) error {
	model := e.model
	typed, assignments, err := model.buildAssignments(values, true)
	if err != nil {
		return err
	}

	stmt := model.statement()
	stmt.AddClause(clause.Update{})
	stmt.AddClause(assignments)
	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.PrimaryColumn, Value: e.PK()},
	}})
	stmt.Build("UPDATE", "SET", "WHERE")

	if _, err := model.execute(ctx, stmt); err != nil {
		return err
	}

	for name, value := range typed {
		if err := e.SetAttr(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the row identified by the entity's primary key.
func (e *Entity) Delete(ctx context.Context) error {
	model := e.model

	stmt := model.statement()
	stmt.AddClause(clause.Delete{})
	stmt.AddClause(clause.From{})
	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.PrimaryColumn, Value: e.PK()},
	}})
	stmt.Build("DELETE", "FROM", "WHERE")

	_, err := model.execute(ctx, stmt)
	return err
}

// Load re-reads every attribute from the database. ErrNotFound is
// returned when the row no longer exists.
func (e *Entity) Load(ctx context.Context) error {
	model := e.model

	stmt := model.statement()
	stmt.AddClause(clause.Select{Columns: model.ownColumns(false)})
	stmt.AddClause(clause.From{})
	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.PrimaryColumn, Value: e.PK()},
	}})
	stmt.Build("SELECT", "FROM", "WHERE")

	row, err := model.fetchOne(ctx, stmt)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNotFound
	}

	fresh, err := model.entityFromRow(row, nil, false)
	if err != nil {
		return err
	}
	e.attrs = fresh.attrs
	return nil
}

// ownColumns lists the model's columns, alias-qualified when the
// statement joins other tables.
func (m *Model) ownColumns(aliased bool) []clause.Column {
	columns := make([]clause.Column, 0, len(m.schema.Fields))
	for _, field := range m.schema.Fields {
		column := clause.Column{Table: m.schema.Table, Name: field.DBName}
		if aliased {
			column.Alias = m.schema.Table + "__" + field.DBName
		}
		columns = append(columns, column)
	}
	return columns
}

// entityFromRow rebuilds an entity from one fetched row, descending
// depth-first through the eager-load paths so nested related entities
// come back fully populated.
func (m *Model) entityFromRow(row gateway.Row, selectRelated []string, aliased bool) (*Entity, error) {
	item := Values{}

	for _, related := range selectRelated {
		first, remainder, nested := strings.Cut(related, ".")

		field := m.schema.LookUpField(first)
		if field == nil || !field.Relational() {
			return nil, fmt.Errorf("%w: %s has no relation %q", ErrInvalidRelation, m.schema.Name, first)
		}
		target, err := m.target(field)
		if err != nil {
			return nil, err
		}

		var paths []string
		if nested {
			paths = []string{remainder}
		}
		child, err := target.entityFromRow(row, paths, aliased)
		if err != nil {
			return nil, err
		}
		item[first] = child
	}

	for _, field := range m.schema.Fields {
		if _, ok := item[field.Name]; ok {
			continue
		}

		column := field.DBName
		if aliased {
			column = m.schema.Table + "__" + field.DBName
		}
		value, ok := row.Value(column)
		if !ok {
			continue
		}

		if value != nil {
			if value, ok = extractValue(field, value); !ok {
				continue
			}
		}
		item[field.Name] = value
	}

	return m.New(item)
}

func extractValue(field *schema.Field, value interface{}) (interface{}, bool) {
	extracted, err := field.Extract(value)
	if err != nil {
		return nil, false
	}
	return extracted, true
}

// buildAssignments validates update values and renders them as SET
// assignments. Auto-now fields are stamped when absent.
func (m *Model) buildAssignments(values Values, autoNow bool) (Values, clause.Set, error) {
	typed := make(Values, len(values))

	for name, value := range values {
		if name == "pk" {
			name = m.schema.PrimaryField.Name
		}
		field := m.schema.LookUpField(name)
		if field == nil {
			return nil, nil, fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, m.schema.Name, name)
		}

		if related, ok := value.(*Entity); ok && field.Relational() {
			value = related.PK()
		}

		validated, err := field.Validate(value)
		if err != nil {
			return nil, nil, err
		}
		typed[field.Name] = validated
	}

	if autoNow {
		for _, field := range m.schema.Fields {
			if field.AutoNow {
				if _, ok := typed[field.Name]; !ok {
					typed[field.Name] = time.Now().UTC()
				}
			}
		}
	}

	assignments := make(clause.Set, 0, len(typed))
	for _, field := range m.schema.Fields {
		value, ok := typed[field.Name]
		if !ok {
			continue
		}
		bound, err := field.Bind(value)
		if err != nil {
			return nil, nil, err
		}
		assignments = append(assignments, clause.Assignment{
			Column: clause.Column{Name: field.DBName},
			Value:  bound,
		})
	}

	return typed, assignments, nil
}
