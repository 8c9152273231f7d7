package orm

import (
	"fmt"

	"github.com/encode/orm/gateway"
	"github.com/encode/orm/schema"
)

// Model is a registered table definition bound to its registry.
type Model struct {
	schema   *schema.Schema
	registry *Registry
}

// Name returns the model name used at registration.
func (m *Model) Name() string { return m.schema.Name }

// Table returns the database table name.
func (m *Model) Table() string { return m.schema.Table }

// Schema exposes the underlying field definitions.
func (m *Model) Schema() *schema.Schema { return m.schema }

// Objects returns a fresh query set over all rows of the model. Every
// call starts a new, unfiltered chain.
func (m *Model) Objects() *QuerySet {
	return &QuerySet{model: m}
}

// target resolves the model a relational field points at.
func (m *Model) target(field *schema.Field) (*Model, error) {
	target, ok := m.registry.model(field.TargetName)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s: %q", ErrUnresolvedReference, m.schema.Name, field.Name, field.TargetName)
	}
	return target, nil
}

func (m *Model) gateway() gateway.Gateway { return m.registry.config.Gateway }

func (m *Model) dialector() Dialector { return m.registry.config.Dialector }

func (m *Model) statement() *Statement {
	return NewStatement(m.schema, m.registry.config.Dialector)
}
