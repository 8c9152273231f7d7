package orm

import (
	"regexp"
	"strconv"

	"github.com/encode/orm/logger"
)

// Dialector adapts placeholder style, identifier quoting and generated key
// retrieval to the database behind the gateway.
type Dialector interface {
	Name() string
	// BindVar returns the placeholder for the bind variable at the given
	// 1-based position.
	BindVar(position int) string
	QuoteChars() (start, end byte)
	// SupportsReturning reports whether INSERT ... RETURNING is available
	// for reading generated primary keys.
	SupportsReturning() bool
	// Explain inlines bind variables into sql for log output.
	Explain(sql string, vars ...interface{}) string
}

// CommonDialect covers databases using `?` placeholders and backquoted
// identifiers, with generated keys read from the driver result.
type CommonDialect struct{}

func (CommonDialect) Name() string { return "common" }

func (CommonDialect) BindVar(int) string { return "?" }

func (CommonDialect) QuoteChars() (byte, byte) { return '`', '`' }

func (CommonDialect) SupportsReturning() bool { return false }

func (CommonDialect) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}

var numericPlaceholder = regexp.MustCompile(`\$(\d+)`)

// PostgresDialect uses numbered placeholders, double-quoted identifiers
// and RETURNING for generated keys.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) BindVar(position int) string {
	return "$" + strconv.Itoa(position)
}

func (PostgresDialect) QuoteChars() (byte, byte) { return '"', '"' }

func (PostgresDialect) SupportsReturning() bool { return true }

func (PostgresDialect) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, numericPlaceholder, `'`, vars...)
}
