// Package pgxgateway adapts a pgx connection pool to the gateway contract.
package pgxgateway

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/encode/orm/gateway"
)

// Gateway runs statements on a pgx pool owned by the caller.
type Gateway struct {
	pool *pgxpool.Pool
}

// New wraps a connected pool.
func New(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

type result struct {
	rowsAffected int64
}

func (r result) LastInsertId() (int64, error) {
	// Postgres reports generated keys through RETURNING, not the command tag.
	return 0, errors.New("postgres does not report last insert id")
}

func (r result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// Execute runs a write statement.
func (g *Gateway) Execute(ctx context.Context, query string, args ...interface{}) (gateway.Result, error) {
	tag, err := g.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "execute statement")
	}
	return result{rowsAffected: tag.RowsAffected()}, nil
}

// FetchAll runs a query and maps every row by column name.
func (g *Gateway) FetchAll(ctx context.Context, query string, args ...interface{}) ([]gateway.Row, error) {
	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "fetch rows")
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()

	var result []gateway.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		row := make(gateway.MapRow, len(descriptions))
		for i, description := range descriptions {
			row[description.Name] = values[i]
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
	if err := g.pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return nil, errors.Wrap(err, "fetch value")
	}
	return value, nil
}
