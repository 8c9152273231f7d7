// Package gateway defines the execute/fetch boundary between the query
// builder and an actual database connection. The builder issues exactly
// one statement per call and never manages connections or transactions;
// both belong to the adapter's owner.
package gateway

import "context"

// Row supports column-keyed lookup on one fetched row.
type Row interface {
	Value(column string) (interface{}, bool)
}

// MapRow is a Row backed by a column map.
type MapRow map[string]interface{}

// Value looks up a column value.
func (r MapRow) Value(column string) (interface{}, bool) {
	v, ok := r[column]
	return v, ok
}

// Result reports the outcome of a write statement. Adapters whose driver
// cannot report a generated key return an error from LastInsertId; the
// builder then relies on RETURNING support instead.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Gateway executes compiled statements against a connection owned by the
// caller's surrounding scope.
type Gateway interface {
	Execute(ctx context.Context, query string, args ...interface{}) (Result, error)
	FetchAll(ctx context.Context, query string, args ...interface{}) ([]Row, error)
	// FetchOne returns nil when no row matched.
	FetchOne(ctx context.Context, query string, args ...interface{}) (Row, error)
	FetchVal(ctx context.Context, query string, args ...interface{}) (interface{}, error)
}
