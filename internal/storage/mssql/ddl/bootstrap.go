package ddl

import (
	"context"

	gddl "sparkify/internal/ddl"
	"sparkify/internal/storage"
)

// EnsureTables creates the given tables if they do not exist.
func EnsureTables(ctx context.Context, repo storage.Repository, tables []gddl.TableDef) error {
	return storage.CreateTables(ctx, repo, Dialect, tables)
}
