package clause

// Select select columns when querying
type Select struct {
	Distinct bool
	Columns  []Column
}

func (s Select) Name() string {
	return "SELECT"
}

func (s Select) Build(builder Builder) {
	if s.Distinct {
		builder.WriteString("DISTINCT ")
	}

	if len(s.Columns) > 0 {
		for idx, column := range s.Columns {
			if idx > 0 {
				builder.WriteByte(',')
			}
			builder.WriteQuoted(column)
		}
	} else {
		builder.WriteByte('*')
	}
}

func (s Select) MergeClause(clause *Clause) {
	if v, ok := clause.Expression.(Select); ok {
		s.Columns = append(v.Columns, s.Columns...)
	}
	clause.Expression = s
}
