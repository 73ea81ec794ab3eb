// Package etl drives one run of the job: every song-metadata file is loaded
// into songs and artists, then every event-log file into time, users and
// songplays. Files are processed one at a time, each in its own transaction,
// and rows that fail are logged and counted without stopping the run.
package etl

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"sparkify/internal/datasource/file"
	"sparkify/internal/metrics"
	jsonparser "sparkify/internal/parser/json"
	"sparkify/internal/schema"
	"sparkify/internal/storage"
	"sparkify/internal/transformer"
	"sparkify/pkg/records"
)

// Phases of a run, in execution order.
const (
	PhaseSongData = "song_data"
	PhaseLogData  = "log_data"
)

// Options configure a Runner.
type Options struct {
	// Job labels metrics.
	Job string
	// RunID identifies the run in the summary.
	RunID string

	SongDataPath string
	LogDataPath  string
	// FileExt selects input files; defaults to ".json".
	FileExt string
}

// rowsFunc turns the records of one file into rows, given the file's
// transaction.
type rowsFunc func(ctx context.Context, tx storage.Tx, recs []records.Record) iter.Seq2[schema.Row, error]

// Runner executes the two load phases against a Repository.
type Runner struct {
	repo   storage.Repository
	opts   Options
	logger *zap.Logger
	lookup *transformer.CachedLookup
}

// NewRunner returns a Runner writing through repo. A nil logger discards
// output.
func NewRunner(repo storage.Repository, opts Options, logger *zap.Logger) *Runner {
	if opts.FileExt == "" {
		opts.FileExt = file.DefaultExt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		repo:   repo,
		opts:   opts,
		logger: logger,
		lookup: transformer.NewCachedLookup(nil),
	}
}

// Run loads the song data and then the log data. The returned error is
// fatal: a directory that cannot be walked, a file that cannot be parsed, or
// a transaction that cannot begin or commit. Row-level failures never make
// Run fail; they are reported in the Summary. Files committed before a fatal
// error stay committed.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := newSummary(r.opts.RunID)

	err := r.runPhase(ctx, PhaseSongData, r.opts.SongDataPath, &sum.Song, sum, songRows)
	if err == nil {
		err = r.runPhase(ctx, PhaseLogData, r.opts.LogDataPath, &sum.Log, sum, r.logRows)
	}

	sum.Duration = time.Since(start)
	metrics.RecordStep(r.opts.Job, "run", err, sum.Duration)
	return sum, err
}

func songRows(_ context.Context, _ storage.Tx, recs []records.Record) iter.Seq2[schema.Row, error] {
	return transformer.SongFileRows(recs)
}

// logRows resolves songs through the current file's transaction. Matches are
// memoized for the whole run; songs and artists do not change once the song
// phase is over.
func (r *Runner) logRows(ctx context.Context, tx storage.Tx, recs []records.Record) iter.Seq2[schema.Row, error] {
	r.lookup.Reset(tx)
	return transformer.LogFileRows(ctx, recs, r.lookup)
}

func (r *Runner) runPhase(ctx context.Context, phase, root string, ps *PhaseSummary, sum *Summary, build rowsFunc) error {
	ps.Path = root

	files, err := file.Locate(root, r.opts.FileExt)
	if err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}
	ps.Found = len(files)
	r.logger.Info(fmt.Sprintf("%d files found in %s", len(files), root), zap.String("phase", phase))

	step := phase + "_file"
	for i, path := range files {
		t0 := time.Now()
		res, err := r.loadFile(ctx, path, build)
		metrics.RecordStep(r.opts.Job, step, err, time.Since(t0))
		if err != nil {
			metrics.RecordFiles(r.opts.Job, phase, ps.Processed)
			return fmt.Errorf("%s: %w", phase, err)
		}

		sum.add(res)
		ps.Processed++
		for table, n := range res.Inserted {
			metrics.RecordRow(r.opts.Job, table, "inserted", n)
		}
		for table, n := range res.Failed {
			metrics.RecordRow(r.opts.Job, table, "failed", n)
		}

		r.logger.Info(fmt.Sprintf("%d/%d files processed.", i+1, len(files)),
			zap.String("file", path),
			zap.Int("inserted", res.TotalInserted()),
			zap.Int("failed", res.TotalFailed()))
	}
	metrics.RecordFiles(r.opts.Job, phase, ps.Processed)
	return nil
}

// loadFile parses path, loads its rows in one transaction and commits.
func (r *Runner) loadFile(ctx context.Context, path string, build rowsFunc) (*storage.FileResult, error) {
	recs, err := jsonparser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin %s: %w", path, err)
	}

	res, err := storage.Load(ctx, tx, build(ctx, tx, recs), path, r.logger)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("commit %s: %w", path, err)
	}
	return res, nil
}
