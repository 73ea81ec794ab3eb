// Package storage contains the storage-agnostic contracts of the pipeline: a
// Repository opened through a backend registry, the per-file transaction the
// loader writes through, and the SQL helpers the backends share.
//
// Backends register themselves in init (see internal/storage/all):
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	defer repo.Close()
//	if err := storage.EnsureSchema(ctx, "postgres", repo); err != nil { ... }
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sparkify/internal/schema"
)

// Repository is an open connection to a warehouse.
type Repository interface {
	// Exec runs a statement outside of any file transaction (DDL).
	Exec(ctx context.Context, sql string) error
	// Begin starts the transaction for one source file.
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// Tx is the transaction a single source file is loaded in.
type Tx interface {
	// Insert writes one row. A failed insert is rolled back on its own and
	// leaves the transaction usable for the following rows.
	Insert(ctx context.Context, row schema.Row) error

	// LookupSong finds the song and artist ids matching title, artist name
	// and duration exactly. When several pairs match, the smallest
	// (song_id, artist_id) wins.
	LookupSong(ctx context.Context, title, artist string, duration float64) (songID, artistID string, found bool, err error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ConflictPolicy decides what an insert does when the primary key exists.
type ConflictPolicy string

const (
	// ConflictError issues a plain INSERT; duplicates fail as row errors.
	ConflictError ConflictPolicy = "error"
	// ConflictIgnore skips rows whose key already exists.
	ConflictIgnore ConflictPolicy = "ignore"
	// ConflictUpdate overwrites the non-key columns of the existing row.
	ConflictUpdate ConflictPolicy = "update"
)

// ParseConflictPolicy accepts "", "error", "ignore" and "update".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictError, nil
	case ConflictError, ConflictIgnore, ConflictUpdate:
		return p, nil
	default:
		return "", fmt.Errorf("storage: unknown conflict policy %q", s)
	}
}

// Config selects and configures a backend.
type Config struct {
	Kind       string
	DSN        string
	OnConflict ConflictPolicy
}

// Factory opens a Repository for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository through the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	if cfg.OnConflict == "" {
		cfg.OnConflict = ConflictError
	}
	return f(ctx, cfg)
}
