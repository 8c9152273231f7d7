package orm

import (
	"context"
	"time"

	"github.com/encode/orm/gateway"
)

// The helpers below run one compiled statement through the gateway and
// trace it with the configured logger, mirroring how drivers report
// timing and affected rows.

func (m *Model) execute(ctx context.Context, stmt *Statement) (gateway.Result, error) {
	begin := time.Now()
	sql, vars := stmt.ToSQL()

	result, err := m.gateway().Execute(ctx, sql, vars...)

	var rows int64 = -1
	if result != nil {
		if affected, affectedErr := result.RowsAffected(); affectedErr == nil {
			rows = affected
		}
	}
	m.trace(ctx, begin, sql, vars, rows, err)
	return result, err
}

func (m *Model) fetchAll(ctx context.Context, stmt *Statement) ([]gateway.Row, error) {
	begin := time.Now()
	sql, vars := stmt.ToSQL()

	rows, err := m.gateway().FetchAll(ctx, sql, vars...)
	m.trace(ctx, begin, sql, vars, int64(len(rows)), err)
	return rows, err
}

func (m *Model) fetchOne(ctx context.Context, stmt *Statement) (gateway.Row, error) {
	begin := time.Now()
	sql, vars := stmt.ToSQL()

	row, err := m.gateway().FetchOne(ctx, sql, vars...)

	var rows int64
	if row != nil {
		rows = 1
	}
	m.trace(ctx, begin, sql, vars, rows, err)
	return row, err
}

func (m *Model) fetchVal(ctx context.Context, sql string, vars []interface{}) (interface{}, error) {
	begin := time.Now()

	value, err := m.gateway().FetchVal(ctx, sql, vars...)
	m.trace(ctx, begin, sql, vars, 1, err)
	return value, err
}

func (m *Model) trace(ctx context.Context, begin time.Time, sql string, vars []interface{}, rows int64, err error) {
	config := m.registry.config
	config.Logger.Trace(ctx, begin, func() (string, int64) {
		return config.Dialector.Explain(sql, vars...), rows
	}, err)
}
