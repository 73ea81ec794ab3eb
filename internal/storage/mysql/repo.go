// Package mysql implements a MySQL-backed storage.Repository on top of
// database/sql and github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"sparkify/internal/storage"
	myddl "sparkify/internal/storage/mysql/ddl"
	"sparkify/internal/storage/sqldb"
)

// MySQL server error numbers surfaced in row failures.
const (
	errDupEntry    = 1062
	errBadNullErr  = 1048
	errDataTooLong = 1406
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver format, e.g. "airflow:airflow@tcp(127.0.0.1:3306)/sparkifydb".
	DSN        string
	OnConflict storage.ConflictPolicy
}

// Dialect is the database/sql dialect for MySQL.
var Dialect = sqldb.Dialect{
	Name:   "mysql",
	Driver: "mysql",
	DDL:    myddl.Dialect,
	Syntax: storage.Syntax{
		Quote:       myddl.QuoteIdent,
		Placeholder: storage.QuestionMark,
		OnConflict:  onDuplicateKey,
	},
	DescribeError: describeError,
}.StandardSavepoints()

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// NewRepository validates the DSN, connects, and returns a Repository plus
// a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN, cfg.OnConflict)
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

// onDuplicateKey renders MySQL's ON DUPLICATE KEY UPDATE. Ignoring a
// duplicate is expressed as a self-assignment of the first key so that
// real errors (bad values, NULLs) still surface, unlike INSERT IGNORE.
func onDuplicateKey(policy storage.ConflictPolicy, keys, cols []string) string {
	if policy == storage.ConflictUpdate && len(cols) > 0 {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s = %s", keys[0], keys[0])
}

func describeError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDupEntry:
		return fmt.Errorf("duplicate key: %w", err)
	case errBadNullErr:
		return fmt.Errorf("null value in required column: %w", err)
	case errDataTooLong:
		return fmt.Errorf("value too long: %w", err)
	}
	return err
}
