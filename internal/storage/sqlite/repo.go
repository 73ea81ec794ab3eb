// Package sqlite implements a SQLite-backed storage.Repository on top of
// database/sql and modernc.org/sqlite. Each file is loaded in one
// transaction; every row runs inside its own SAVEPOINT.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sparkify/internal/storage"
	sqliteddl "sparkify/internal/storage/sqlite/ddl"
	"sparkify/internal/storage/sqldb"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "sparkify.db"
	//   "file:sparkify.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	OnConflict storage.ConflictPolicy
}

// Dialect is the database/sql dialect for SQLite.
var Dialect = sqldb.Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	DDL:    sqliteddl.Dialect,
	Syntax: storage.Syntax{
		Quote:       sqliteddl.QuoteIdent,
		Placeholder: storage.QuestionMark,
		OnConflict:  storage.OnConflictDoClause,
	},
	DescribeError: describeError,
}.StandardSavepoints()

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN, cfg.OnConflict)
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

// describeError names the SQLite result code of constraint violations.
func describeError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("duplicate key: %w", err)
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("null value in required column: %w", err)
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("constraint violation: %w", err)
	}
	return err
}
