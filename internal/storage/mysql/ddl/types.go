// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "sparkify/internal/ddl"
)

// Types maps logical column types to MySQL types. Keys are VARCHAR because
// TEXT columns cannot be part of a primary key without a prefix length.
var Types = map[gddl.Type]string{
	gddl.TypeKey:       "VARCHAR(64)",
	gddl.TypeText:      "TEXT",
	gddl.TypeInt:       "INT",
	gddl.TypeBigInt:    "BIGINT",
	gddl.TypeDouble:    "DOUBLE",
	gddl.TypeTimestamp: "DATETIME(3)",
	gddl.TypeIdentity:  "BIGINT AUTO_INCREMENT",
}

// QuoteIdent quotes a single identifier with backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// Dialect renders MySQL DDL.
var Dialect = gddl.Dialect{Quote: QuoteIdent, Types: Types}
