package ddl

// ColumnDef describes a single column in a table definition.
//
// Name is unquoted; quoting happens at render time.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name in dotted form (e.g. "schema.table") and
// an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect renders identifiers for one SQL backend.
type Dialect struct {
	Name       string
	QuoteIdent func(string) string
}
