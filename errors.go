package orm

import (
	"errors"
	"fmt"

	"github.com/encode/orm/logger"
	"github.com/encode/orm/schema"
)

var (
	// ErrNotFound record not found error
	ErrNotFound = logger.ErrRecordNotFound
	// ErrMultipleFound returned by Get when more than one record matched
	ErrMultipleFound = errors.New("multiple records found")
	// ErrInvalidKeyword returned when a filter key or attribute name does
	// not name a field on the model
	ErrInvalidKeyword = errors.New("invalid keyword argument")
	// ErrUnknownOperator returned when a filter key ends in an operator
	// suffix that is not supported
	ErrUnknownOperator = errors.New("unknown filter operator")
	// ErrInvalidRelation returned when a filter or eager-load path
	// traverses a field that is not relational
	ErrInvalidRelation = errors.New("field is not relational")
	// ErrConflictingRelation returned when two distinct relation paths
	// would join the same table; the joined columns could not be told
	// apart, so the query refuses to compile
	ErrConflictingRelation = errors.New("conflicting relation paths")
	// ErrUnresolvedReference returned by Resolve when a relational field
	// names a model that was never registered
	ErrUnresolvedReference = errors.New("unresolved model reference")
	// ErrModelNotRegistered returned when looking up an unknown model
	ErrModelNotRegistered = errors.New("model not registered")
	// ErrMissingGateway returned when a registry is built without a
	// database gateway
	ErrMissingGateway = errors.New("gateway is required")

	// ErrDefinition reported for invalid model definitions at
	// registration time
	ErrDefinition = schema.ErrDefinition
)

// ValidationError reports a value rejected by a field's validation.
type ValidationError = schema.FieldError

type unresolvedReference struct {
	model string
	field string
	to    string
}

func (e *unresolvedReference) Error() string {
	return fmt.Sprintf("%s.%s: %v: %q", e.model, e.field, ErrUnresolvedReference, e.to)
}

func (e *unresolvedReference) Unwrap() error {
	return ErrUnresolvedReference
}
