package clause

type Values struct {
	Columns []Column
	Values  [][]interface{}
}

// Name values clause name
func (Values) Name() string {
	return ""
}

// Build build values clause
func (values Values) Build(builder Builder) {
	if len(values.Columns) > 0 {
		builder.WriteByte('(')
		for idx, column := range values.Columns {
			if idx > 0 {
				builder.WriteByte(',')
			}
			builder.WriteQuoted(column)
		}
		builder.WriteByte(')')

		builder.WriteString(" VALUES ")

		for idx, value := range values.Values {
			if idx > 0 {
				builder.WriteByte(',')
			}

			builder.WriteByte('(')
			builder.WriteString(builder.AddVar(value...))
			builder.WriteByte(')')
		}
	} else {
		builder.WriteString("DEFAULT VALUES")
	}
}

// MergeClause merge values clauses
func (values Values) MergeClause(clause *Clause) {
	if v, ok := clause.Expression.(Values); ok {
		values.Values = append(v.Values, values.Values...)
	}
	clause.Expression = values
}
