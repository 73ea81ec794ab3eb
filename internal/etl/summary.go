package etl

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"sparkify/internal/schema"
	"sparkify/internal/storage"
)

// PhaseSummary counts the files of one phase.
type PhaseSummary struct {
	Path      string
	Found     int
	Processed int
}

// FileFailure is a row that was not loaded, with the file it came from.
type FileFailure struct {
	Path string
	storage.RowResult
}

// Summary is the outcome of a run.
type Summary struct {
	RunID    string
	Song     PhaseSummary
	Log      PhaseSummary
	Inserted map[string]int
	Failed   map[string]int
	Failures []FileFailure
	Duration time.Duration
}

func newSummary(runID string) *Summary {
	return &Summary{RunID: runID, Inserted: map[string]int{}, Failed: map[string]int{}}
}

func (s *Summary) add(res *storage.FileResult) {
	for t, n := range res.Inserted {
		s.Inserted[t] += n
	}
	for t, n := range res.Failed {
		s.Failed[t] += n
	}
	for _, f := range res.Failures {
		s.Failures = append(s.Failures, FileFailure{Path: res.Path, RowResult: f})
	}
}

// TotalInserted sums Inserted over all tables.
func (s *Summary) TotalInserted() int {
	n := 0
	for _, v := range s.Inserted {
		n += v
	}
	return n
}

// TotalFailed sums Failed over all tables.
func (s *Summary) TotalFailed() int {
	n := 0
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// WriteTo prints a table of per-table counts.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(format string, a ...any) error {
		n, err := fmt.Fprintf(w, format, a...)
		total += int64(n)
		return err
	}

	if err := write("run %s: %d/%d song files, %d/%d log files in %s\n",
		s.RunID, s.Song.Processed, s.Song.Found, s.Log.Processed, s.Log.Found, s.Duration.Truncate(time.Millisecond)); err != nil {
		return total, err
	}

	tables := make([]string, 0, len(s.Inserted)+len(s.Failed))
	for _, t := range schema.Tables() {
		tables = append(tables, t.Name)
	}
	var extra []string
	for t := range s.Failed {
		if !slices.Contains(tables, t) {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	tables = append(tables, extra...)

	for _, t := range tables {
		if err := write("  %-10s inserted=%d failed=%d\n", t, s.Inserted[t], s.Failed[t]); err != nil {
			return total, err
		}
	}
	return total, nil
}
