package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"sparkify/internal/schema"
	"sparkify/internal/storage"
)

var (
	sharedDSN     string
	sharedDSNOnce sync.Once
	sharedDSNErr  error
)

// testDSN returns a Postgres DSN for integration tests: TEST_PG_DSN when set,
// otherwise a throwaway container shared by the package. Skipped in short
// mode.
func testDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("TEST_PG_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedDSNOnce.Do(func() {
		sharedDSN, sharedDSNErr = startPostgres()
	})
	if sharedDSNErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedDSNErr)
	}
	return sharedDSN
}

func startPostgres() (string, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "sparkifydb",
			"POSTGRES_USER":     "airflow",
			"POSTGRES_PASSWORD": "airflow",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}
	return fmt.Sprintf("host=%s port=%s dbname=sparkifydb user=airflow password=airflow sslmode=disable", host, port.Port()), nil
}

// resetSchema drops and recreates the warehouse tables.
func resetSchema(t *testing.T, r *Repository) {
	t.Helper()
	ctx := context.Background()
	for _, tbl := range schema.Tables() {
		if err := r.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{tbl.Name}.Sanitize()); err != nil {
			t.Fatalf("drop %s: %v", tbl.Name, err)
		}
	}
	if err := storage.EnsureSchema(ctx, "postgres", &wrappedRepo{Repository: r}); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
}

// TestRepositoryRoundTrip loads a song, a duplicate and a play in one file
// transaction and checks that only the duplicate is rejected.
func TestRepositoryRoundTrip(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	r, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()
	resetSchema(t, r)

	song := schema.Song{
		SongID:   "S1",
		Title:    sql.NullString{String: "T", Valid: true},
		ArtistID: "A1",
		Year:     sql.NullInt64{Int64: 2000, Valid: true},
		Duration: sql.NullFloat64{Float64: 180.5, Valid: true},
	}
	artist := schema.Artist{ArtistID: "A1", Name: sql.NullString{String: "Band", Valid: true}}

	tx, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Insert(ctx, song.Row(1)); err != nil {
		t.Fatalf("insert song: %v", err)
	}
	if err := tx.Insert(ctx, song.Row(2)); err == nil {
		t.Fatalf("duplicate song insert error = nil")
	}
	if err := tx.Insert(ctx, artist.Row(1)); err != nil {
		t.Fatalf("insert after failure: %v", err)
	}

	songID, artistID, found, err := tx.LookupSong(ctx, "T", "Band", 180.5)
	if err != nil || !found || songID != "S1" || artistID != "A1" {
		t.Fatalf("LookupSong = %q, %q, %v, %v", songID, artistID, found, err)
	}
	play := schema.Songplay{
		StartTime: time.UnixMilli(1541903636796).UTC(),
		UserID:    39,
		Level:     sql.NullString{String: "free", Valid: true},
		SongID:    sql.NullString{String: songID, Valid: true},
		ArtistID:  sql.NullString{String: artistID, Valid: true},
	}
	if err := tx.Insert(ctx, play.Row(1)); err != nil {
		t.Fatalf("insert songplay: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for table, want := range map[string]int{schema.TableSongs: 1, schema.TableArtists: 1, schema.TableSongplays: 1} {
		var n int
		if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Errorf("%s rows = %d, want %d", table, n, want)
		}
	}
}

// TestFailedLookupKeepsTransaction breaks the lookup statement and checks
// that the file transaction still accepts rows and commits.
func TestFailedLookupKeepsTransaction(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	r, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()
	resetSchema(t, r)
	r.lookup = `SELECT 1/0, $1::text || $2::text || $3::float8::text`

	tx, err := r.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, _, _, err := tx.LookupSong(ctx, "T", "Band", 180.5); err == nil {
		t.Fatalf("LookupSong error = nil; want division by zero")
	}

	user := schema.User{UserID: 39, Level: sql.NullString{String: "free", Valid: true}}
	if err := tx.Insert(ctx, user.Row(1)); err != nil {
		t.Fatalf("insert after failed lookup: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit after failed lookup: %v", err)
	}

	var n int
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{schema.TableUsers}.Sanitize()).Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Fatalf("users rows = %d, want 1", n)
	}
}
