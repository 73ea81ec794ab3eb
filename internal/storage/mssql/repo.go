// Package mssql implements a Microsoft SQL Server repository on top of
// database/sql and go-mssqldb. Rows are isolated with SAVE TRANSACTION;
// SQL Server has no savepoint release.
package mssql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"sparkify/internal/storage"
	msddl "sparkify/internal/storage/mssql/ddl"
	"sparkify/internal/storage/sqldb"
)

// SQL Server error numbers surfaced in row failures.
const (
	errPKViolation     = 2627
	errUniqueIndex     = 2601
	errNullInsert      = 515
	errStringTruncated = 2628
)

// Config holds MSSQL repository configuration.
type Config struct {
	// DSN is a sqlserver:// URL or ADO-style connection string.
	DSN string
	// OnConflict must be storage.ConflictError; SQL Server needs MERGE for
	// upserts, which this backend does not generate.
	OnConflict storage.ConflictPolicy
}

// Dialect is the database/sql dialect for SQL Server.
var Dialect = sqldb.Dialect{
	Name:   "mssql",
	Driver: "sqlserver",
	DDL:    msddl.Dialect,
	Syntax: storage.Syntax{
		Quote:       msddl.QuoteIdent,
		Placeholder: func(i int) string { return fmt.Sprintf("@p%d", i) },
		Limit1:      top1,
	},
	Savepoint:     func(n string) string { return "SAVE TRANSACTION " + n },
	RollbackTo:    func(n string) string { return "ROLLBACK TRANSACTION " + n },
	DescribeError: describeError,
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN, cfg.OnConflict)
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

func top1(selectSQL string) string {
	return strings.Replace(selectSQL, "SELECT ", "SELECT TOP 1 ", 1)
}

func describeError(err error) error {
	var me mssql.Error
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errPKViolation, errUniqueIndex:
		return fmt.Errorf("duplicate key: %w", err)
	case errNullInsert:
		return fmt.Errorf("null value in required column: %w", err)
	case errStringTruncated:
		return fmt.Errorf("value too long: %w", err)
	}
	return err
}
