package clause_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/encode/orm/clause"
)

// testBuilder renders clauses with backquoted identifiers and `?`
// placeholders, resolving the current-table placeholder to "tracks".
type testBuilder struct {
	strings.Builder
	vars []interface{}
}

func (b *testBuilder) WriteQuoted(field interface{}) {
	switch v := field.(type) {
	case clause.Table:
		name := v.Name
		if name == clause.CurrentTable {
			name = "tracks"
		}
		b.WriteString("`" + name + "`")
		if v.Alias != "" {
			b.WriteString(" `" + v.Alias + "`")
		}
	case clause.Column:
		if v.Table != "" {
			table := v.Table
			if table == clause.CurrentTable {
				table = "tracks"
			}
			b.WriteString("`" + table + "`.")
		}
		name := v.Name
		if name == clause.PrimaryKey {
			name = "id"
		}
		b.WriteString("`" + name + "`")
		if v.Alias != "" {
			b.WriteString(" AS `" + v.Alias + "`")
		}
	case string:
		b.WriteString("`" + v + "`")
	}
}

func (b *testBuilder) AddVar(vars ...interface{}) string {
	var sql strings.Builder
	for idx, v := range vars {
		if idx > 0 {
			sql.WriteByte(',')
		}
		switch v := v.(type) {
		case clause.Column, clause.Table:
			quoted := &testBuilder{}
			quoted.WriteQuoted(v)
			sql.WriteString(quoted.String())
		default:
			b.vars = append(b.vars, v)
			sql.WriteByte('?')
		}
	}
	return sql.String()
}

func buildClauses(t *testing.T, clauses ...clause.Interface) (string, []interface{}) {
	t.Helper()

	builder := &testBuilder{}
	built := map[string]clause.Clause{}
	var order []string

	for _, c := range clauses {
		name := c.Name()
		merged, ok := built[name]
		if !ok {
			merged.Name = name
			order = append(order, name)
		}
		c.MergeClause(&merged)
		built[name] = merged
	}

	for idx, name := range order {
		if idx > 0 {
			builder.WriteByte(' ')
		}
		built[name].Build(builder)
	}
	return builder.String(), builder.vars
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		clauses []clause.Interface
		sql     string
	}{
		{
			name:    "all columns",
			clauses: []clause.Interface{clause.Select{}, clause.From{}},
			sql:     "SELECT * FROM `tracks`",
		},
		{
			name: "explicit columns",
			clauses: []clause.Interface{
				clause.Select{Columns: []clause.Column{
					{Table: "tracks", Name: "id"},
					{Table: "tracks", Name: "title"},
				}},
				clause.From{},
			},
			sql: "SELECT `tracks`.`id`,`tracks`.`title` FROM `tracks`",
		},
		{
			name: "aliased columns",
			clauses: []clause.Interface{
				clause.Select{Columns: []clause.Column{
					{Table: "tracks", Name: "id", Alias: "tracks__id"},
				}},
				clause.From{},
			},
			sql: "SELECT `tracks`.`id` AS `tracks__id` FROM `tracks`",
		},
		{
			name: "distinct",
			clauses: []clause.Interface{
				clause.Select{Distinct: true, Columns: []clause.Column{{Name: "title"}}},
				clause.From{},
			},
			sql: "SELECT DISTINCT `title` FROM `tracks`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars := buildClauses(t, tt.clauses...)
			assert.Equal(t, tt.sql, sql)
			assert.Empty(t, vars)
		})
	}
}

func TestFromJoins(t *testing.T) {
	sql, _ := buildClauses(t,
		clause.Select{},
		clause.From{Joins: []clause.Join{{
			Type:  clause.InnerJoin,
			Table: clause.Table{Name: "albums"},
			ON: clause.Where{Exprs: []clause.Expression{clause.Eq{
				Column: clause.Column{Table: "tracks", Name: "album"},
				Value:  clause.Column{Table: "albums", Name: "id"},
			}}},
		}}},
	)

	assert.Equal(t, "SELECT * FROM `tracks` INNER JOIN `albums` ON `tracks`.`album` = `albums`.`id`", sql)
}

func TestWhere(t *testing.T) {
	tests := []struct {
		name    string
		clauses []clause.Interface
		sql     string
		vars    []interface{}
	}{
		{
			name: "single condition",
			clauses: []clause.Interface{clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Name: "title"}, Value: "Moon"},
			}}},
			sql:  "WHERE `title` = ?",
			vars: []interface{}{"Moon"},
		},
		{
			name: "conditions joined with and",
			clauses: []clause.Interface{clause.Where{Exprs: []clause.Expression{
				clause.Gt{Column: clause.Column{Name: "position"}, Value: 2},
				clause.Neq{Column: clause.Column{Name: "title"}, Value: "Moon"},
			}}},
			sql:  "WHERE `position` > ? AND `title` <> ?",
			vars: []interface{}{2, "Moon"},
		},
		{
			name: "merged where clauses accumulate",
			clauses: []clause.Interface{
				clause.Where{Exprs: []clause.Expression{
					clause.Gte{Column: clause.Column{Name: "position"}, Value: 1},
				}},
				clause.Where{Exprs: []clause.Expression{
					clause.Lte{Column: clause.Column{Name: "position"}, Value: 10},
				}},
			},
			sql:  "WHERE `position` >= ? AND `position` <= ?",
			vars: []interface{}{1, 10},
		},
		{
			name: "or conditions",
			clauses: []clause.Interface{clause.Where{Exprs: []clause.Expression{
				clause.Or(
					clause.Eq{Column: clause.Column{Name: "title"}, Value: "Moon"},
					clause.Eq{Column: clause.Column{Name: "title"}, Value: "Sun"},
				),
			}}},
			sql:  "WHERE (`title` = ? OR `title` = ?)",
			vars: []interface{}{"Moon", "Sun"},
		},
		{
			name: "is null",
			clauses: []clause.Interface{clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Name: "album"}, Value: nil},
			}}},
			sql: "WHERE `album` IS NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars := buildClauses(t, tt.clauses...)
			assert.Equal(t, tt.sql, sql)
			if len(tt.vars) == 0 {
				assert.Empty(t, vars)
			} else {
				assert.Equal(t, tt.vars, vars)
			}
		})
	}
}

func TestNot(t *testing.T) {
	tests := []struct {
		name string
		expr clause.Expression
		sql  string
		vars []interface{}
	}{
		{
			name: "single condition negates inline",
			expr: clause.Not(clause.Eq{Column: clause.Column{Name: "title"}, Value: "Moon"}),
			sql:  "`title` <> ?",
			vars: []interface{}{"Moon"},
		},
		{
			name: "comparison flips instead of wrapping",
			expr: clause.Not(clause.Gt{Column: clause.Column{Name: "position"}, Value: 3}),
			sql:  "`position` <= ?",
			vars: []interface{}{3},
		},
		{
			name: "conjunction wraps in NOT",
			expr: clause.Not(
				clause.Eq{Column: clause.Column{Name: "title"}, Value: "Moon"},
				clause.Gt{Column: clause.Column{Name: "position"}, Value: 3},
			),
			sql:  "NOT (`title` = ? AND `position` > ?)",
			vars: []interface{}{"Moon", 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &testBuilder{}
			tt.expr.Build(builder)
			assert.Equal(t, tt.sql, builder.String())
			assert.Equal(t, tt.vars, builder.vars)
		})
	}
}

func TestIN(t *testing.T) {
	tests := []struct {
		name   string
		values []interface{}
		sql    string
	}{
		{name: "empty set never matches", values: nil, sql: "`title` IN (NULL)"},
		{name: "single value collapses to equality", values: []interface{}{"Moon"}, sql: "`title` = ?"},
		{name: "multiple values", values: []interface{}{"Moon", "Sun"}, sql: "`title` IN (?,?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &testBuilder{}
			clause.IN{Column: clause.Column{Name: "title"}, Values: tt.values}.Build(builder)
			assert.Equal(t, tt.sql, builder.String())
		})
	}
}

func TestLikeEscape(t *testing.T) {
	builder := &testBuilder{}
	clause.Like{Column: clause.Column{Name: "title"}, Value: `%100\%%`, Escape: `\`}.Build(builder)

	assert.Equal(t, "`title` LIKE ? ESCAPE ?", builder.String())
	assert.Equal(t, []interface{}{`%100\%%`, `\`}, builder.vars)

	builder = &testBuilder{}
	clause.ILike{Column: clause.Column{Name: "title"}, Value: "%moon%"}.Build(builder)
	assert.Equal(t, "`title` ILIKE ?", builder.String())
}

func TestOrderBy(t *testing.T) {
	sql, _ := buildClauses(t,
		clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Table: "tracks", Name: "position"}, Desc: true},
		}},
	)
	assert.Equal(t, "ORDER BY `tracks`.`position` DESC", sql)

	// A later ordering replaces the earlier one entirely.
	sql, _ = buildClauses(t,
		clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "position"}},
		}},
		clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "title"}},
		}},
	)
	assert.Equal(t, "ORDER BY `title`", sql)
}

func TestLimit(t *testing.T) {
	ten, twenty := 10, 20

	tests := []struct {
		name    string
		clauses []clause.Interface
		sql     string
		vars    []interface{}
	}{
		{
			name:    "limit only",
			clauses: []clause.Interface{clause.Limit{Limit: &ten}},
			sql:     "LIMIT ?",
			vars:    []interface{}{10},
		},
		{
			name:    "limit and offset",
			clauses: []clause.Interface{clause.Limit{Limit: &ten, Offset: 5}},
			sql:     "LIMIT ? OFFSET ?",
			vars:    []interface{}{10, 5},
		},
		{
			name:    "later limit wins",
			clauses: []clause.Interface{clause.Limit{Limit: &ten}, clause.Limit{Limit: &twenty}},
			sql:     "LIMIT ?",
			vars:    []interface{}{20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars := buildClauses(t, tt.clauses...)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.vars, vars)
		})
	}
}

func TestInsertValues(t *testing.T) {
	sql, vars := buildClauses(t,
		clause.Insert{},
		clause.Values{
			Columns: []clause.Column{{Name: "album"}, {Name: "title"}},
			Values:  [][]interface{}{{1, "Moon"}},
		},
	)

	assert.Equal(t, "INSERT INTO `tracks` (`album`,`title`) VALUES (?,?)", sql)
	assert.Equal(t, []interface{}{1, "Moon"}, vars)
}

func TestUpdateSet(t *testing.T) {
	sql, vars := buildClauses(t,
		clause.Update{},
		clause.Set{{Column: clause.Column{Name: "title"}, Value: "Sun"}},
		clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.PrimaryColumn, Value: 7},
		}},
	)

	assert.Equal(t, "UPDATE `tracks` SET `title`=? WHERE `tracks`.`id` = ?", sql)
	assert.Equal(t, []interface{}{"Sun", 7}, vars)
}

func TestDelete(t *testing.T) {
	sql, vars := buildClauses(t,
		clause.Delete{},
		clause.From{},
		clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.PrimaryColumn, Value: 7},
		}},
	)

	assert.Equal(t, "DELETE FROM `tracks` WHERE `tracks`.`id` = ?", sql)
	assert.Equal(t, []interface{}{7}, vars)
}

func TestReturning(t *testing.T) {
	sql, _ := buildClauses(t,
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	)
	assert.Equal(t, "RETURNING `id`", sql)
}

func TestExpr(t *testing.T) {
	builder := &testBuilder{}
	clause.Expr{SQL: "position > ? AND position < ?", Vars: []interface{}{1, 10}}.Build(builder)

	assert.Equal(t, "position > ? AND position < ?", builder.String())
	assert.Equal(t, []interface{}{1, 10}, builder.vars)
}
