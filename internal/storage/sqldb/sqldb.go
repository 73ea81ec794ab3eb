// Package sqldb implements storage.Repository on top of database/sql. The
// SQLite, MySQL and SQL Server backends share it and differ only in their
// Dialect.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sparkify/internal/ddl"
	"sparkify/internal/schema"
	"sparkify/internal/storage"
)

// savepointName is reused for every row; a row's savepoint is always
// released or rolled back before the next one is taken.
const savepointName = "sparkify_row"

// Dialect describes one database/sql backend.
type Dialect struct {
	// Name prefixes errors, e.g. "sqlite".
	Name string
	// Driver is the database/sql driver name.
	Driver string

	DDL    ddl.Dialect
	Syntax storage.Syntax

	// Savepoint, RollbackTo and Release render the savepoint statements for a
	// name. Release may be nil when the backend has no release verb.
	Savepoint  func(name string) string
	RollbackTo func(name string) string
	Release    func(name string) string

	// DescribeError rewrites driver errors into something worth logging.
	// Optional.
	DescribeError func(error) error
}

// StandardSavepoints fills the SQL-standard SAVEPOINT verbs used by SQLite
// and MySQL.
func (d Dialect) StandardSavepoints() Dialect {
	d.Savepoint = func(n string) string { return "SAVEPOINT " + n }
	d.RollbackTo = func(n string) string { return "ROLLBACK TO SAVEPOINT " + n }
	d.Release = func(n string) string { return "RELEASE SAVEPOINT " + n }
	return d
}

// Repository is a storage.Repository over a single *sql.DB connection.
// Close is provided by the backend adapters through the close function
// returned by Open.
type Repository struct {
	db      *sql.DB
	d       Dialect
	policy  storage.ConflictPolicy
	inserts map[string]string
	lookup  string
}

// Open connects with d.Driver and verifies the connection. The pool is
// pinned to one connection: the pipeline is strictly sequential and SQLite
// in-memory databases live and die with their connection.
func Open(ctx context.Context, d Dialect, dsn string, policy storage.ConflictPolicy) (*Repository, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	r, err := newRepository(d, policy)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}

	r.db = db
	return r, func() { _ = db.Close() }, nil
}

// newRepository renders every statement up front so that an unsupported
// conflict policy fails at startup rather than on the first row.
func newRepository(d Dialect, policy storage.ConflictPolicy) (*Repository, error) {
	if policy == "" {
		policy = storage.ConflictError
	}
	r := &Repository{d: d, policy: policy, inserts: map[string]string{}}
	for _, t := range schema.Tables() {
		stmt, err := storage.BuildInsert(d.Syntax, t, policy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name, err)
		}
		r.inserts[t.Name] = stmt
	}
	r.lookup = storage.BuildLookup(d.Syntax)
	return r, nil
}

// DB returns the underlying handle. It must not be used while a Tx is open:
// the pool holds a single connection.
func (r *Repository) DB() *sql.DB { return r.db }

// Exec runs a statement outside of a file transaction.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", r.d.Name, r.describe(err))
	}
	return nil
}

// Begin starts the transaction for one source file.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", r.d.Name, err)
	}
	return &Tx{r: r, tx: tx}, nil
}

func (r *Repository) describe(err error) error {
	if r.d.DescribeError == nil {
		return err
	}
	return r.d.DescribeError(err)
}

func (r *Repository) insertSQL(t *ddl.TableDef) (string, error) {
	if stmt, ok := r.inserts[t.Name]; ok {
		return stmt, nil
	}
	stmt, err := storage.BuildInsert(r.d.Syntax, *t, r.policy)
	if err != nil {
		return "", err
	}
	r.inserts[t.Name] = stmt
	return stmt, nil
}

// Tx is the transaction of one source file.
type Tx struct {
	r  *Repository
	tx *sql.Tx
}

var _ storage.Tx = (*Tx)(nil)

// Insert writes row inside its own savepoint.
func (t *Tx) Insert(ctx context.Context, row schema.Row) error {
	if row.Table == nil {
		return fmt.Errorf("%s: insert: row has no table", t.r.d.Name)
	}
	stmt, err := t.r.insertSQL(row.Table)
	if err != nil {
		return fmt.Errorf("%s: %w", t.r.d.Name, err)
	}

	if _, err := t.tx.ExecContext(ctx, t.r.d.Savepoint(savepointName)); err != nil {
		return fmt.Errorf("%s: savepoint: %w", t.r.d.Name, err)
	}
	if _, err := t.tx.ExecContext(ctx, stmt, row.Values...); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, t.r.d.RollbackTo(savepointName)); rbErr != nil {
			return errors.Join(
				fmt.Errorf("%s: insert into %s: %w", t.r.d.Name, row.Table.Name, t.r.describe(err)),
				fmt.Errorf("%s: rollback to savepoint: %w", t.r.d.Name, rbErr),
			)
		}
		return fmt.Errorf("%s: insert into %s: %w", t.r.d.Name, row.Table.Name, t.r.describe(err))
	}
	if t.r.d.Release != nil {
		if _, err := t.tx.ExecContext(ctx, t.r.d.Release(savepointName)); err != nil {
			return fmt.Errorf("%s: release savepoint: %w", t.r.d.Name, err)
		}
	}
	return nil
}

// LookupSong runs the song/artist match inside the file transaction.
func (t *Tx) LookupSong(ctx context.Context, title, artist string, duration float64) (string, string, bool, error) {
	var songID, artistID string
	err := t.tx.QueryRowContext(ctx, t.r.lookup, title, artist, duration).Scan(&songID, &artistID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", "", false, nil
	case err != nil:
		return "", "", false, fmt.Errorf("%s: lookup song: %w", t.r.d.Name, t.r.describe(err))
	}
	return songID, artistID, true, nil
}

// Commit commits the file transaction.
func (t *Tx) Commit(context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.r.d.Name, err)
	}
	return nil
}

// Rollback aborts the file transaction. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%s: rollback: %w", t.r.d.Name, err)
	}
	return nil
}
