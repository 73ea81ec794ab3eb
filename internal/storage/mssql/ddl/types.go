// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// Key columns are bounded NVARCHAR because SQL Server cannot index
// NVARCHAR(MAX); everything else that is free text stays unbounded.
package ddl

import (
	"fmt"
	"strings"

	gddl "sparkify/internal/ddl"
)

// Types maps logical column types to SQL Server types.
var Types = map[gddl.Type]string{
	gddl.TypeKey:       "NVARCHAR(64)",
	gddl.TypeText:      "NVARCHAR(MAX)",
	gddl.TypeInt:       "INT",
	gddl.TypeBigInt:    "BIGINT",
	gddl.TypeDouble:    "FLOAT",
	gddl.TypeTimestamp: "DATETIME2(3)",
	gddl.TypeIdentity:  "BIGINT IDENTITY(1,1)",
}

// QuoteIdent wraps id in brackets, escaping closing brackets.
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// guard makes CREATE TABLE idempotent; SQL Server has no IF NOT EXISTS.
func guard(table, createStmt string) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", strings.ReplaceAll(table, "'", "''"), createStmt)
}

// Dialect renders SQL Server DDL.
var Dialect = gddl.Dialect{Quote: QuoteIdent, Types: Types, Guard: guard}
