// Package postgres implements a Postgres repository using pgx v5 over a
// single connection. Each file is one transaction; each row is written in a
// nested transaction (a SAVEPOINT) so a rejected row leaves the file
// transaction usable.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sparkify/internal/schema"
	"sparkify/internal/storage"
	pgddl "sparkify/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN        string // keyword/value or URL connection string for pgx
	OnConflict storage.ConflictPolicy
}

// Syntax is the DML syntax for Postgres.
var Syntax = storage.Syntax{
	Quote:       pgddl.QuoteIdent,
	Placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
	OnConflict:  storage.OnConflictDoClause,
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	conn    *pgx.Conn
	inserts map[string]string
	lookup  string
}

// NewRepository connects and returns a Repository plus a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	r := &Repository{inserts: map[string]string{}, lookup: storage.BuildLookup(Syntax)}
	for _, t := range schema.Tables() {
		stmt, err := storage.BuildInsert(Syntax, t, cfg.OnConflict)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		r.inserts[t.Name] = stmt
	}

	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: connect: %w", describe(err))
	}
	r.conn = conn
	closeFn := func() { _ = conn.Close(context.Background()) }
	return r, closeFn, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// Begin starts the transaction of one source file.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &fileTx{r: r, tx: tx}, nil
}

type fileTx struct {
	r  *Repository
	tx pgx.Tx
}

func (t *fileTx) Insert(ctx context.Context, row schema.Row) error {
	if row.Table == nil {
		return fmt.Errorf("postgres: insert: row has no table")
	}
	stmt, ok := t.r.inserts[row.Table.Name]
	if !ok {
		return fmt.Errorf("postgres: insert: unknown table %s", row.Table.Name)
	}

	return t.savepoint(ctx, func(sp pgx.Tx) error {
		if _, err := sp.Exec(ctx, stmt, row.Values...); err != nil {
			return fmt.Errorf("postgres: insert into %s: %w", row.Table.Name, describe(err))
		}
		return nil
	})
}

// LookupSong runs under its own savepoint like Insert, so a failed query
// does not abort the file transaction.
func (t *fileTx) LookupSong(ctx context.Context, title, artist string, duration float64) (string, string, bool, error) {
	var (
		songID, artistID string
		found            bool
	)
	err := t.savepoint(ctx, func(sp pgx.Tx) error {
		err := sp.QueryRow(ctx, t.r.lookup, title, artist, duration).Scan(&songID, &artistID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil
		case err != nil:
			return fmt.Errorf("postgres: lookup song: %w", describe(err))
		}
		found = true
		return nil
	})
	if err != nil {
		return "", "", false, err
	}
	return songID, artistID, found, nil
}

// savepoint runs fn in a nested transaction. On error the nested
// transaction is rolled back and the file transaction stays usable.
func (t *fileTx) savepoint(ctx context.Context, fn func(pgx.Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("postgres: rollback to savepoint: %w", rbErr))
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: release savepoint: %w", err)
	}
	return nil
}

func (t *fileTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", describe(err))
	}
	return nil
}

func (t *fileTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// describe surfaces the server-side detail and SQLSTATE of a PgError.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return err
}
