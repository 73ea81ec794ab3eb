// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// Importing this package makes the following storage kinds available:
//
//   - "postgres" (sparkify/internal/storage/postgres)
//   - "mysql"    (sparkify/internal/storage/mysql)
//   - "mssql"    (sparkify/internal/storage/mssql)
//   - "sqlite"   (sparkify/internal/storage/sqlite)
//
// Typical usage (in cmd/etl/main.go):
//
//	import _ "sparkify/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: dsn})
//	if err != nil { ... }
//	defer repo.Close()
//	if cfg.Storage.AutoCreateSchema {
//	    err = storage.EnsureSchema(ctx, cfg.Storage.Kind, repo)
//	}
//
// A binary that needs only a subset of backends can import those backend
// packages directly instead of this one.
package all

import (
	_ "sparkify/internal/storage/mssql"
	_ "sparkify/internal/storage/mysql"
	_ "sparkify/internal/storage/postgres"
	_ "sparkify/internal/storage/sqlite"
)
