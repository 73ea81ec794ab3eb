package ddl

// Type is a logical column type. Backends map it to a concrete SQL type via
// their Dialect.
type Type int

const (
	// TypeKey is a short string used as a primary/lookup key (ids).
	TypeKey Type = iota
	// TypeText is free-form text of unbounded length.
	TypeText
	// TypeInt is a 32-bit integer.
	TypeInt
	// TypeBigInt is a 64-bit integer.
	TypeBigInt
	// TypeDouble is a double precision float.
	TypeDouble
	// TypeTimestamp is a timestamp without time zone (values are UTC).
	TypeTimestamp
	// TypeIdentity is a 64-bit integer populated by the database.
	TypeIdentity
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Type: logical type, rendered through Dialect.Types
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       Type
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and an ordered list of columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// InsertColumns returns the names of the columns a client supplies on INSERT,
// in definition order. Identity columns are skipped.
func (t TableDef) InsertColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Type == TypeIdentity {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

// KeyColumns returns the primary key column names, excluding identity columns
// (a generated key never conflicts on insert).
func (t TableDef) KeyColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey && c.Type != TypeIdentity {
			out = append(out, c.Name)
		}
	}
	return out
}
