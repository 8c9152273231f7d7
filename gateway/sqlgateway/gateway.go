// Package sqlgateway adapts a database/sql handle to the gateway contract.
package sqlgateway

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/encode/orm/gateway"
)

// Gateway runs statements on a *sql.DB owned by the caller.
type Gateway struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// Execute runs a write statement.
func (g *Gateway) Execute(ctx context.Context, query string, args ...interface{}) (gateway.Result, error) {
	result, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "execute statement")
	}
	return result, nil
}

// FetchAll runs a query and maps every row by column name.
func (g *Gateway) FetchAll(ctx context.Context, query string, args ...interface{}) ([]gateway.Row, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "fetch rows")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	var result []gateway.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		row := make(gateway.MapRow, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
			} else {
				row[column] = values[i]
			}
		}
		result = append(result, row)
	}

	return result, errors.Wrap(rows.Err(), "iterate rows")
}

// FetchOne returns the first row or nil.
func (g *Gateway) FetchOne(ctx context.Context, query string, args ...interface{}) (gateway.Row, error) {
	rows, err := g.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FetchVal returns the first column of the first row.
func (g *Gateway) FetchVal(ctx context.Context, query string, args ...interface{}) (interface{}, error) {
	var value interface{}
	if err := g.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return nil, errors.Wrap(err, "fetch value")
	}
	if b, ok := value.([]byte); ok {
		return string(b), nil
	}
	return value, nil
}
