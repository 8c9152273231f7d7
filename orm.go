// Package orm provides model registration and a lazy, immutable query
// builder on top of a pluggable database gateway. Models are declared as
// ordered field lists, registered on a Registry, then queried through
// per-model query sets whose chain methods never touch the database;
// only terminal operations execute SQL.
package orm

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/encode/orm/gateway"
	"github.com/encode/orm/logger"
	"github.com/encode/orm/schema"
)

// Values carries named attribute values for filters, creates and updates.
type Values map[string]interface{}

// Config configures a Registry.
type Config struct {
	// Gateway executes compiled statements. Required.
	Gateway gateway.Gateway
	// Dialector adapts SQL rendering to the target database. Defaults to
	// CommonDialect.
	Dialector Dialector
	// Logger traces executed statements. Defaults to the standard writer
	// logger at Warn level.
	Logger logger.Interface
	// NamingStrategy derives table and column names from model and field
	// names.
	NamingStrategy schema.Namer
}

// Registry holds registered models and the shared configuration they
// execute against. Registration is two-phase: Register collects models
// and validates each definition in isolation, Resolve then binds every
// relational field to its target model.
type Registry struct {
	config Config

	mu       sync.RWMutex
	models   map[string]*Model
	resolved bool
}

// NewRegistry builds a registry, applying configuration defaults.
func NewRegistry(config Config) (*Registry, error) {
	if config.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if config.Dialector == nil {
		config.Dialector = CommonDialect{}
	}
	if config.Logger == nil {
		config.Logger = logger.Default
	}
	if config.NamingStrategy == nil {
		config.NamingStrategy = schema.NamingStrategy{}
	}

	return &Registry{
		config: config,
		models: make(map[string]*Model),
	}, nil
}

// Register declares a model under the given name. Registering the same
// name again returns the existing model unchanged. Definition errors,
// like a missing primary key, surface here rather than at query time.
func (r *Registry) Register(name string, fields ...*schema.Field) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if model, ok := r.models[name]; ok {
		return model, nil
	}

	s, err := schema.New(name, r.config.NamingStrategy, fields...)
	if err != nil {
		return nil, err
	}

	model := &Model{schema: s, registry: r}
	r.models[name] = model
	r.resolved = false
	return model, nil
}

// Resolve binds every relational field to its registered target model.
// All dangling references are reported together rather than one at a
// time.
func (r *Registry) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for _, model := range r.models {
		for _, field := range model.schema.Fields {
			if !field.Relational() {
				continue
			}
			target, ok := r.models[field.TargetName]
			if !ok {
				errs = multierror.Append(errs, &unresolvedReference{
					model: model.schema.Name,
					field: field.Name,
					to:    field.TargetName,
				})
				continue
			}
			field.Resolve(target.schema)
		}
	}
	if errs != nil {
		return errs
	}

	r.resolved = true
	return nil
}

// Model returns a registered model by name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, ok := r.models[name]
	if !ok {
		return nil, ErrModelNotRegistered
	}
	return model, nil
}

func (r *Registry) model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	model, ok := r.models[name]
	return model, ok
}
