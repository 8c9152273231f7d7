package orm

import (
	"strings"

	"github.com/encode/orm/clause"
	"github.com/encode/orm/schema"
)

// Statement accumulates clauses for one SQL statement and renders them
// into query text plus bind variables.
type Statement struct {
	Table     string
	Schema    *schema.Schema
	Dialector Dialector
	Clauses   map[string]clause.Clause
	SQL       strings.Builder
	Vars      []interface{}
}

// NewStatement returns an empty statement for the model's table.
func NewStatement(s *schema.Schema, dialector Dialector) *Statement {
	return &Statement{
		Table:     s.Table,
		Schema:    s,
		Dialector: dialector,
		Clauses:   make(map[string]clause.Clause, 6),
	}
}

// WriteString write string
func (stmt *Statement) WriteString(str string) (int, error) {
	return stmt.SQL.WriteString(str)
}

// WriteByte write byte
func (stmt *Statement) WriteByte(c byte) error {
	return stmt.SQL.WriteByte(c)
}

// WriteQuoted write quoted value
func (stmt *Statement) WriteQuoted(value interface{}) {
	stmt.QuoteTo(&stmt.SQL, value)
}

// QuoteTo write quoted value to writer, resolving the current-table and
// primary-key placeholders against the statement's model.
func (stmt *Statement) QuoteTo(writer clause.Writer, field interface{}) {
	switch v := field.(type) {
	case clause.Table:
		if v.Name == clause.CurrentTable {
			stmt.quoteIdentifier(writer, stmt.Table)
		} else if v.Raw {
			writer.WriteString(v.Name)
		} else {
			stmt.quoteIdentifier(writer, v.Name)
		}

		if v.Alias != "" {
			writer.WriteString(" ")
			stmt.quoteIdentifier(writer, v.Alias)
		}
	case clause.Column:
		if v.Table != "" {
			if v.Table == clause.CurrentTable {
				stmt.quoteIdentifier(writer, stmt.Table)
			} else {
				stmt.quoteIdentifier(writer, v.Table)
			}
			writer.WriteByte('.')
		}

		if v.Name == clause.PrimaryKey {
			if stmt.Schema != nil && stmt.Schema.PrimaryField != nil {
				stmt.quoteIdentifier(writer, stmt.Schema.PrimaryField.DBName)
			}
		} else if v.Raw {
			writer.WriteString(v.Name)
		} else {
			stmt.quoteIdentifier(writer, v.Name)
		}

		if v.Alias != "" {
			writer.WriteString(" AS ")
			stmt.quoteIdentifier(writer, v.Alias)
		}
	case string:
		stmt.quoteIdentifier(writer, v)
	default:
	}
}

func (stmt *Statement) quoteIdentifier(writer clause.Writer, str string) {
	start, end := stmt.Dialector.QuoteChars()
	writer.WriteByte(start)
	writer.WriteString(str)
	writer.WriteByte(end)
}

// Quote returns quoted value
func (stmt *Statement) Quote(field interface{}) string {
	var builder strings.Builder
	stmt.QuoteTo(&builder, field)
	return builder.String()
}

// AddVar registers bind variables and returns their placeholder text.
// Columns and tables passed as values render as quoted identifiers
// instead of placeholders.
func (stmt *Statement) AddVar(vars ...interface{}) string {
	var builder strings.Builder
	for idx, v := range vars {
		if idx > 0 {
			builder.WriteByte(',')
		}

		switch v := v.(type) {
		case clause.Column, clause.Table:
			builder.WriteString(stmt.Quote(v))
		case clause.Expr:
			sql := v.SQL
			for _, vv := range v.Vars {
				sql = strings.Replace(sql, "?", stmt.AddVar(vv), 1)
			}
			builder.WriteString(sql)
		case []interface{}:
			if len(v) > 0 {
				builder.WriteString(stmt.AddVar(v...))
			} else {
				builder.WriteString("(NULL)")
			}
		default:
			stmt.Vars = append(stmt.Vars, v)
			builder.WriteString(stmt.Dialector.BindVar(len(stmt.Vars)))
		}
	}
	return builder.String()
}

// AddClause adds a clause, merging with any clause of the same name
// already collected.
func (stmt *Statement) AddClause(v clause.Interface) {
	name := v.Name()
	c := stmt.Clauses[name]
	if c.Name == "" && c.Expression == nil {
		c.Name = name
	}
	v.MergeClause(&c)
	stmt.Clauses[name] = c
}

// Build renders the named clauses, in order, into SQL.
func (stmt *Statement) Build(names ...string) {
	var firstClauseWritten bool
	for _, name := range names {
		if c, ok := stmt.Clauses[name]; ok {
			if firstClauseWritten {
				stmt.SQL.WriteByte(' ')
			}
			firstClauseWritten = true
			c.Build(stmt)
		}
	}
}

// ToSQL returns the rendered statement and its bind variables.
func (stmt *Statement) ToSQL() (string, []interface{}) {
	return stmt.SQL.String(), stmt.Vars
}
