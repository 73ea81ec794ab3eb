// Package ddl defines a small, backend-agnostic model for the warehouse tables
// and renders CREATE TABLE statements for a given SQL dialect.
//
// Backends (internal/storage/postgres, sqlite, mysql, mssql) describe their
// dialect once; the table model itself lives in internal/schema.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the per-backend differences needed to render DDL.
type Dialect struct {
	// Quote quotes a single identifier.
	Quote func(string) string

	// Types maps each logical type to a concrete SQL type.
	Types map[Type]string

	// Guard wraps a CREATE TABLE statement so that it is a no-op when the
	// table already exists. When nil, "IF NOT EXISTS" is emitted inline.
	Guard func(table, createStmt string) string
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS <name> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  PRIMARY KEY (<pk-cols>)
//	)
//
// Identity columns never get an explicit NOT NULL; the dialect type carries
// whatever the backend needs.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	quote := d.Quote
	if quote == nil {
		quote = func(s string) string { return s }
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		cname := strings.TrimSpace(c.Name)
		if cname == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ, ok := d.Types[c.Type]
		if !ok || typ == "" {
			return "", fmt.Errorf("ddl: column %s: no SQL type for logical type %d", cname, c.Type)
		}

		var sb strings.Builder
		sb.WriteString(quote(cname))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable && c.Type != TypeIdentity {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(cname))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		return d.Guard(name, fmt.Sprintf("CREATE TABLE %s %s", quote(name), body)), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", quote(name), body), nil
}
