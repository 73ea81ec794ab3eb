package storage

import (
	"context"
	"errors"
	"iter"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sparkify/internal/schema"
	"sparkify/internal/transformer"
)

// fakeTx records inserts and fails the ones whose record number is in failOn.
type fakeTx struct {
	inserted []schema.Row
	failOn   map[int]bool
}

func (f *fakeTx) Insert(_ context.Context, row schema.Row) error {
	if f.failOn[row.Record] {
		return errors.New(`duplicate key value violates unique constraint "songs_pkey"`)
	}
	f.inserted = append(f.inserted, row)
	return nil
}

func (f *fakeTx) LookupSong(context.Context, string, string, float64) (string, string, bool, error) {
	return "", "", false, nil
}
func (f *fakeTx) Commit(context.Context) error   { return nil }
func (f *fakeTx) Rollback(context.Context) error { return nil }

func seqOf(items ...any) iter.Seq2[schema.Row, error] {
	return func(yield func(schema.Row, error) bool) {
		for _, it := range items {
			var ok bool
			switch v := it.(type) {
			case schema.Row:
				ok = yield(v, nil)
			case error:
				ok = yield(schema.Row{}, v)
			}
			if !ok {
				return
			}
		}
	}
}

// TestLoad_ContinuesPastRowFailures checks that store and transform failures
// are counted and logged per row while the remaining rows still load.
func TestLoad_ContinuesPastRowFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	tx := &fakeTx{failOn: map[int]bool{2: true}}

	rows := seqOf(
		schema.Song{SongID: "S1", ArtistID: "A1"}.Row(1),
		schema.Artist{ArtistID: "A1"}.Row(1),
		schema.Song{SongID: "S1", ArtistID: "A1"}.Row(2),
		&transformer.RecordError{Table: schema.TableSongs, Record: 3, Err: errors.New("missing song_id")},
		schema.Artist{ArtistID: "A2"}.Row(4),
	)

	res, err := Load(context.Background(), tx, rows, "/data/song.json", zap.New(core))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := len(tx.inserted); got != 3 {
		t.Fatalf("inserted %d rows; want 3", got)
	}
	if res.Inserted[schema.TableSongs] != 1 || res.Inserted[schema.TableArtists] != 2 {
		t.Fatalf("Inserted = %v", res.Inserted)
	}
	if res.Failed[schema.TableSongs] != 2 || res.TotalFailed() != 2 || res.TotalInserted() != 3 {
		t.Fatalf("Failed = %v", res.Failed)
	}
	if len(res.Failures) != 2 || res.Failures[0].Record != 2 || res.Failures[1].Record != 3 {
		t.Fatalf("Failures = %+v", res.Failures)
	}

	if logs.Len() != 2 {
		t.Fatalf("logged %d lines; want one per failure", logs.Len())
	}
	if msg := logs.All()[0].Message; msg != "Error: Inserting Rows for songs" {
		t.Fatalf("first log = %q", msg)
	}
	if msg := logs.All()[1].Message; msg != "Error: Transforming record for songs" {
		t.Fatalf("second log = %q", msg)
	}
}

func TestLoad_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := &fakeTx{}
	_, err := Load(ctx, tx, seqOf(schema.Artist{ArtistID: "A1"}.Row(1)), "f", zap.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Load error = %v; want context.Canceled", err)
	}
	if len(tx.inserted) != 0 {
		t.Fatalf("inserted after cancel: %d", len(tx.inserted))
	}
}
