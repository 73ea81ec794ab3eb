// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "sparkify/internal/ddl"
)

// Types maps logical column types to SQLite storage classes. An INTEGER
// primary key is an alias of the rowid, which is how songplay_id is
// generated.
var Types = map[gddl.Type]string{
	gddl.TypeKey:       "TEXT",
	gddl.TypeText:      "TEXT",
	gddl.TypeInt:       "INTEGER",
	gddl.TypeBigInt:    "INTEGER",
	gddl.TypeDouble:    "REAL",
	gddl.TypeTimestamp: "TIMESTAMP",
	gddl.TypeIdentity:  "INTEGER",
}

// QuoteIdent quotes a single identifier using double quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Dialect renders SQLite DDL.
var Dialect = gddl.Dialect{Quote: QuoteIdent, Types: Types}
