package clause

import "strings"

// Expression is anything that can write itself into a statement.
type Expression interface {
	Build(builder Builder)
}

// NegationExpressionBuilder lets an expression provide a direct negated
// form instead of being wrapped in NOT.
type NegationExpressionBuilder interface {
	NegationBuild(builder Builder)
}

// Column quote with name
type Column struct {
	Table string
	Name  string
	Alias string
	Raw   bool
}

// Table quote with name
type Table struct {
	Name  string
	Alias string
	Raw   bool
}

// Expr raw sql with `?` placeholders
type Expr struct {
	SQL  string
	Vars []interface{}
}

// Build replaces each `?` with the placeholder of the next bind variable.
func (expr Expr) Build(builder Builder) {
	sql := expr.SQL
	for _, v := range expr.Vars {
		sql = strings.Replace(sql, "?", builder.AddVar(v), 1)
	}
	builder.WriteString(sql)
}

// Eq equal to for where
type Eq struct {
	Column interface{}
	Value  interface{}
}

func (eq Eq) Build(builder Builder) {
	builder.WriteQuoted(eq.Column)

	if eq.Value == nil {
		builder.WriteString(" IS NULL")
	} else {
		builder.WriteString(" = ")
		builder.WriteString(builder.AddVar(eq.Value))
	}
}

func (eq Eq) NegationBuild(builder Builder) {
	Neq{eq.Column, eq.Value}.Build(builder)
}

// Neq not equal to for where
type Neq struct {
	Column interface{}
	Value  interface{}
}

func (neq Neq) Build(builder Builder) {
	builder.WriteQuoted(neq.Column)

	if neq.Value == nil {
		builder.WriteString(" IS NOT NULL")
	} else {
		builder.WriteString(" <> ")
		builder.WriteString(builder.AddVar(neq.Value))
	}
}

func (neq Neq) NegationBuild(builder Builder) {
	Eq{neq.Column, neq.Value}.Build(builder)
}

// Gt greater than for where
type Gt struct {
	Column interface{}
	Value  interface{}
}

func (gt Gt) Build(builder Builder) {
	builder.WriteQuoted(gt.Column)
	builder.WriteString(" > ")
	builder.WriteString(builder.AddVar(gt.Value))
}

func (gt Gt) NegationBuild(builder Builder) {
	Lte{gt.Column, gt.Value}.Build(builder)
}

// Gte greater than or equal to for where
type Gte struct {
	Column interface{}
	Value  interface{}
}

func (gte Gte) Build(builder Builder) {
	builder.WriteQuoted(gte.Column)
	builder.WriteString(" >= ")
	builder.WriteString(builder.AddVar(gte.Value))
}

func (gte Gte) NegationBuild(builder Builder) {
	Lt{gte.Column, gte.Value}.Build(builder)
}

// Lt less than for where
type Lt struct {
	Column interface{}
	Value  interface{}
}

func (lt Lt) Build(builder Builder) {
	builder.WriteQuoted(lt.Column)
	builder.WriteString(" < ")
	builder.WriteString(builder.AddVar(lt.Value))
}

func (lt Lt) NegationBuild(builder Builder) {
	Gte{lt.Column, lt.Value}.Build(builder)
}

// Lte less than or equal to for where
type Lte struct {
	Column interface{}
	Value  interface{}
}

func (lte Lte) Build(builder Builder) {
	builder.WriteQuoted(lte.Column)
	builder.WriteString(" <= ")
	builder.WriteString(builder.AddVar(lte.Value))
}

func (lte Lte) NegationBuild(builder Builder) {
	Gt{lte.Column, lte.Value}.Build(builder)
}

// IN whether a value is within a set of values
type IN struct {
	Column interface{}
	Values []interface{}
}

func (in IN) Build(builder Builder) {
	builder.WriteQuoted(in.Column)

	switch len(in.Values) {
	case 0:
		builder.WriteString(" IN (NULL)")
	case 1:
		builder.WriteString(" = ")
		builder.WriteString(builder.AddVar(in.Values...))
	default:
		builder.WriteString(" IN (")
		builder.WriteString(builder.AddVar(in.Values...))
		builder.WriteByte(')')
	}
}

func (in IN) NegationBuild(builder Builder) {
	builder.WriteQuoted(in.Column)

	switch len(in.Values) {
	case 0:
		builder.WriteString(" IS NOT NULL")
	case 1:
		builder.WriteString(" <> ")
		builder.WriteString(builder.AddVar(in.Values...))
	default:
		builder.WriteString(" NOT IN (")
		builder.WriteString(builder.AddVar(in.Values...))
		builder.WriteByte(')')
	}
}

// Like whether string matches pattern. Escape, when set, is emitted as
// the LIKE escape character so literal `%` and `_` in the pattern stay
// literal.
type Like struct {
	Column interface{}
	Value  interface{}
	Escape string
}

func (like Like) Build(builder Builder) {
	builder.WriteQuoted(like.Column)
	builder.WriteString(" LIKE ")
	builder.WriteString(builder.AddVar(like.Value))
	like.buildEscape(builder)
}

func (like Like) NegationBuild(builder Builder) {
	builder.WriteQuoted(like.Column)
	builder.WriteString(" NOT LIKE ")
	builder.WriteString(builder.AddVar(like.Value))
	like.buildEscape(builder)
}

func (like Like) buildEscape(builder Builder) {
	if like.Escape != "" {
		builder.WriteString(" ESCAPE ")
		builder.WriteString(builder.AddVar(like.Escape))
	}
}

// ILike case-insensitive pattern match
type ILike struct {
	Column interface{}
	Value  interface{}
	Escape string
}

func (ilike ILike) Build(builder Builder) {
	builder.WriteQuoted(ilike.Column)
	builder.WriteString(" ILIKE ")
	builder.WriteString(builder.AddVar(ilike.Value))
	Like(ilike).buildEscape(builder)
}

func (ilike ILike) NegationBuild(builder Builder) {
	builder.WriteQuoted(ilike.Column)
	builder.WriteString(" NOT ILIKE ")
	builder.WriteString(builder.AddVar(ilike.Value))
	Like(ilike).buildEscape(builder)
}
