package schema

import (
	"fmt"

	"github.com/google/uuid"
)

// Codec converts between the typed value a field exposes and the raw
// value the database stores. Codecs are opaque to the query builder; it
// only calls Bind before issuing a statement and Extract when mapping a
// row back.
type Codec interface {
	Bind(value interface{}) (interface{}, error)
	Extract(value interface{}) (interface{}, error)
}

// Bind converts a typed value into its storage representation.
func (f *Field) Bind(value interface{}) (interface{}, error) {
	if f.Codec == nil || value == nil {
		return value, nil
	}
	return f.Codec.Bind(value)
}

// Extract converts a raw row value into the field's typed representation.
func (f *Field) Extract(value interface{}) (interface{}, error) {
	if f.Codec == nil || value == nil {
		return value, nil
	}
	return f.Codec.Extract(value)
}

// UUIDCodec stores UUIDs as their canonical string form.
type UUIDCodec struct{}

func (UUIDCodec) Bind(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		return v, nil
	}
	return nil, fmt.Errorf("cannot bind %T as uuid", value)
}

func (UUIDCodec) Extract(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		return uuid.ParseBytes(v)
	}
	return nil, fmt.Errorf("cannot extract %T as uuid", value)
}
