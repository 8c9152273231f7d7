package clause

const (
	// CurrentTable is a placeholder resolved by the statement builder to
	// the table the statement runs against.
	CurrentTable string = "@@@table@@@"
	// PrimaryKey is a placeholder resolved to the primary key column of
	// the current model.
	PrimaryKey string = "@@@primary_key@@@"
)

var (
	currentTable  = Table{Name: CurrentTable}
	// PrimaryColumn refers to the primary key column of the current table.
	PrimaryColumn = Column{Table: CurrentTable, Name: PrimaryKey}
)

// Writer is the byte sink clauses build into.
type Writer interface {
	WriteByte(byte) error
	WriteString(string) (int, error)
}

// Builder is implemented by the statement builder; clauses write SQL
// fragments through it and register bind variables with AddVar.
type Builder interface {
	Writer
	// WriteQuoted writes a quoted Table, Column or plain identifier.
	WriteQuoted(field interface{})
	// AddVar registers bind variables and returns their placeholder text.
	AddVar(vars ...interface{}) string
}

// Clause holds one named section of a statement, e.g. WHERE.
type Clause struct {
	Name       string
	Expression Expression
}

// Build writes the clause name followed by its expression.
func (c Clause) Build(builder Builder) {
	if c.Expression != nil {
		if c.Name != "" {
			builder.WriteString(c.Name)
			builder.WriteByte(' ')
		}
		c.Expression.Build(builder)
	}
}

// Interface is implemented by mergeable statement clauses.
type Interface interface {
	Name() string
	Build(Builder)
	MergeClause(*Clause)
}
