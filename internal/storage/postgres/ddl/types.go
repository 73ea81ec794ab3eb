// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "sparkify/internal/ddl"
)

// Types maps logical column types to Postgres types. Timestamps carry no
// zone; the pipeline stores UTC.
var Types = map[gddl.Type]string{
	gddl.TypeKey:       "VARCHAR",
	gddl.TypeText:      "VARCHAR",
	gddl.TypeInt:       "INT",
	gddl.TypeBigInt:    "BIGINT",
	gddl.TypeDouble:    "DOUBLE PRECISION",
	gddl.TypeTimestamp: "TIMESTAMP",
	gddl.TypeIdentity:  "BIGSERIAL",
}

// QuoteIdent quotes a single identifier using double quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Dialect renders Postgres DDL.
var Dialect = gddl.Dialect{Quote: QuoteIdent, Types: Types}
