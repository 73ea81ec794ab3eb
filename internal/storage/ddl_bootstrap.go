package storage

import (
	"context"
	"fmt"
	"sync"

	"sparkify/internal/ddl"
	"sparkify/internal/schema"
)

// DDLBootstrapper creates the given tables if they do not exist yet.
// Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, tables []ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema creates the warehouse tables for kind. It is safe to call on
// every run.
func EnsureSchema(ctx context.Context, kind string, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage kind %q", kind)
	}
	return fn(ctx, repo, schema.Tables())
}

// CreateTables renders each table with d and executes it through repo.
func CreateTables(ctx context.Context, repo Repository, d ddl.Dialect, tables []ddl.TableDef) error {
	for _, t := range tables {
		stmt, err := ddl.BuildCreateTableSQL(d, t)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}
