package schema

import (
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/oklog/ulid/v2"
)

// DataType model field data type
type DataType string

const (
	TypeInteger    DataType = "integer"
	TypeBigInteger DataType = "biginteger"
	TypeString     DataType = "string"
	TypeText       DataType = "text"
	TypeEmail      DataType = "email"
	TypeEnum       DataType = "enum"
	TypeFloat      DataType = "float"
	TypeDecimal    DataType = "decimal"
	TypeBoolean    DataType = "boolean"
	TypeDateTime   DataType = "datetime"
	TypeDate       DataType = "date"
	TypeTime       DataType = "time"
	TypeUUID       DataType = "uuid"
	TypeJSON       DataType = "json"
	TypeForeignKey DataType = "foreignkey"
)

// FieldError reports why a field rejected a raw value.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Field describes one model attribute: its type, constraints, default and,
// for relational fields, the target model.
type Field struct {
	Name       string
	DBName     string
	DataType   DataType
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Index      bool

	HasDefault  bool
	Default     interface{}
	DefaultFunc func() interface{}
	AutoNow     bool
	AutoNowAdd  bool
	ReadOnly    bool

	MaxLength int
	Choices   []string
	Codec     Codec

	// TargetName names the related model; resolution to *Schema happens
	// in the registry's second phase.
	TargetName string
	target     *Schema
}

// Option configures a Field.
type Option func(*Field)

func PrimaryKey() Option { return func(f *Field) { f.PrimaryKey = true; f.Nullable = true } }
func Nullable() Option   { return func(f *Field) { f.Nullable = true } }
func Unique() Option     { return func(f *Field) { f.Unique = true } }
func Indexed() Option    { return func(f *Field) { f.Index = true } }
func ReadOnly() Option   { return func(f *Field) { f.ReadOnly = true } }
func AutoNow() Option    { return func(f *Field) { f.AutoNow = true } }
func AutoNowAdd() Option { return func(f *Field) { f.AutoNowAdd = true } }

func Default(value interface{}) Option {
	return func(f *Field) { f.HasDefault = true; f.Default = value }
}

func DefaultFunc(fn func() interface{}) Option {
	return func(f *Field) { f.HasDefault = true; f.DefaultFunc = fn }
}

// DefaultULID populates string primary keys with a lexicographically
// sortable unique identifier.
func DefaultULID() Option {
	return DefaultFunc(func() interface{} { return ulid.Make().String() })
}

func newField(name string, dataType DataType, opts ...Option) *Field {
	f := &Field{Name: name, DataType: dataType}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func Integer(name string, opts ...Option) *Field    { return newField(name, TypeInteger, opts...) }
func BigInteger(name string, opts ...Option) *Field { return newField(name, TypeBigInteger, opts...) }
func Float(name string, opts ...Option) *Field      { return newField(name, TypeFloat, opts...) }
func Decimal(name string, opts ...Option) *Field    { return newField(name, TypeDecimal, opts...) }
func Boolean(name string, opts ...Option) *Field    { return newField(name, TypeBoolean, opts...) }
func Text(name string, opts ...Option) *Field       { return newField(name, TypeText, opts...) }
func DateTime(name string, opts ...Option) *Field   { return newField(name, TypeDateTime, opts...) }
func Date(name string, opts ...Option) *Field       { return newField(name, TypeDate, opts...) }
func Time(name string, opts ...Option) *Field       { return newField(name, TypeTime, opts...) }
func JSON(name string, opts ...Option) *Field       { return newField(name, TypeJSON, opts...) }

func String(name string, maxLength int, opts ...Option) *Field {
	f := newField(name, TypeString, opts...)
	f.MaxLength = maxLength
	return f
}

func Email(name string, maxLength int, opts ...Option) *Field {
	f := newField(name, TypeEmail, opts...)
	f.MaxLength = maxLength
	return f
}

func Enum(name string, choices []string, opts ...Option) *Field {
	f := newField(name, TypeEnum, opts...)
	f.Choices = choices
	return f
}

func UUID(name string, opts ...Option) *Field {
	f := newField(name, TypeUUID, opts...)
	f.Codec = UUIDCodec{}
	return f
}

// ForeignKey declares a relation to the model registered under target.
func ForeignKey(name, target string, opts ...Option) *Field {
	f := newField(name, TypeForeignKey, opts...)
	f.TargetName = target
	return f
}

// OneToOne is a foreign key constrained to a single row per target.
func OneToOne(name, target string, opts ...Option) *Field {
	f := ForeignKey(name, target, opts...)
	f.Unique = true
	return f
}

// Relational reports whether the field points at another model.
func (f *Field) Relational() bool {
	return f.TargetName != ""
}

// Target returns the related model definition resolved during registration.
func (f *Field) Target() *Schema {
	return f.target
}

// Resolve binds the relational target; the registry calls this exactly once.
func (f *Field) Resolve(target *Schema) {
	f.target = target
}

// HasTextType reports whether the field stores free text, used by search.
func (f *Field) HasTextType() bool {
	return f.DataType == TypeString || f.DataType == TypeText || f.DataType == TypeEmail
}

// DefaultValue resolves the field default, running factories and
// timestamp hooks.
func (f *Field) DefaultValue() interface{} {
	switch {
	case f.AutoNow || f.AutoNowAdd:
		return time.Now().UTC()
	case f.DefaultFunc != nil:
		return f.DefaultFunc()
	default:
		return f.Default
	}
}

// HasDefaultValue reports whether create can fill the field when absent.
func (f *Field) HasDefaultValue() bool {
	return f.HasDefault || f.AutoNow || f.AutoNowAdd
}

func (f *Field) fail(reason string) error {
	return FieldError{Field: f.Name, Reason: reason}
}

// Validate checks a raw value against the field type and returns the typed
// value to bind. Relational fields validate the raw key against the target
// primary key field.
func (f *Field) Validate(value interface{}) (interface{}, error) {
	if value == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, f.fail("null value for non-nullable field")
	}

	switch f.DataType {
	case TypeInteger, TypeBigInteger:
		return f.validateInt(value)
	case TypeFloat, TypeDecimal:
		return f.validateFloat(value)
	case TypeString, TypeEmail:
		s, ok := value.(string)
		if !ok {
			return nil, f.fail(fmt.Sprintf("expected string, got %T", value))
		}
		if f.MaxLength > 0 && len(s) > f.MaxLength {
			return nil, f.fail(fmt.Sprintf("value longer than %d characters", f.MaxLength))
		}
		if f.DataType == TypeEmail {
			if _, err := mail.ParseAddress(s); err != nil {
				return nil, f.fail(fmt.Sprintf("%q is not a valid email address", s))
			}
		}
		return s, nil
	case TypeText:
		s, ok := value.(string)
		if !ok {
			return nil, f.fail(fmt.Sprintf("expected string, got %T", value))
		}
		return s, nil
	case TypeEnum:
		s, ok := value.(string)
		if !ok {
			return nil, f.fail(fmt.Sprintf("expected string, got %T", value))
		}
		for _, choice := range f.Choices {
			if s == choice {
				return s, nil
			}
		}
		return nil, f.fail(fmt.Sprintf("%q is not a valid choice", s))
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, f.fail(fmt.Sprintf("expected bool, got %T", value))
		}
		return b, nil
	case TypeDateTime, TypeDate:
		return f.validateTime(value)
	case TypeTime:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			if t, err := time.Parse("15:04:05", v); err == nil {
				return t, nil
			}
			return nil, f.fail(fmt.Sprintf("cannot parse %q as time", v))
		}
		return nil, f.fail(fmt.Sprintf("expected time, got %T", value))
	case TypeUUID:
		switch v := value.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, f.fail(fmt.Sprintf("cannot parse %q as uuid", v))
			}
			return id, nil
		}
		return nil, f.fail(fmt.Sprintf("expected uuid, got %T", value))
	case TypeJSON:
		return value, nil
	case TypeForeignKey:
		if f.target != nil && f.target.PrimaryField != nil {
			typed, err := f.target.PrimaryField.Validate(value)
			if err != nil {
				return nil, f.fail("invalid related key: " + err.Error())
			}
			return typed, nil
		}
		return value, nil
	}

	return nil, f.fail(fmt.Sprintf("unsupported data type %q", f.DataType))
}

func (f *Field) validateInt(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return nil, f.fail(fmt.Sprintf("%v is not a whole number", v))
		}
		return int64(v), nil
	}
	return nil, f.fail(fmt.Sprintf("expected integer, got %T", value))
}

func (f *Field) validateFloat(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, f.fail(fmt.Sprintf("expected number, got %T", value))
}

func (f *Field) validateTime(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := now.Parse(v); err == nil {
			return t, nil
		}
		return nil, f.fail(fmt.Sprintf("cannot parse %q as datetime", v))
	}
	return nil, f.fail(fmt.Sprintf("expected datetime, got %T", value))
}
