package storage

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"

	"sparkify/internal/schema"
	"sparkify/internal/transformer"
)

// RowResult records one row that was not loaded.
type RowResult struct {
	Table  string
	Record int
	Err    error
}

// FileResult is the outcome of loading one source file.
type FileResult struct {
	Path     string
	Inserted map[string]int
	Failed   map[string]int
	Failures []RowResult
}

// NewFileResult returns an empty result for path.
func NewFileResult(path string) *FileResult {
	return &FileResult{Path: path, Inserted: map[string]int{}, Failed: map[string]int{}}
}

// TotalInserted sums Inserted over all tables.
func (r *FileResult) TotalInserted() int {
	n := 0
	for _, v := range r.Inserted {
		n += v
	}
	return n
}

// TotalFailed sums Failed over all tables.
func (r *FileResult) TotalFailed() int {
	n := 0
	for _, v := range r.Failed {
		n += v
	}
	return n
}

func (r *FileResult) fail(table string, record int, err error) {
	r.Failed[table]++
	r.Failures = append(r.Failures, RowResult{Table: table, Record: record, Err: err})
}

// Load attempts every row of rows through tx. Row failures, whether the
// transformer could not build the row or the store rejected it, are logged,
// recorded in the result, and do not stop the load. Load never commits; the
// caller commits once the whole file has been attempted.
//
// Load returns early only when ctx is done; the result covers the rows seen.
func Load(ctx context.Context, tx Tx, rows iter.Seq2[schema.Row, error], path string, logger *zap.Logger) (*FileResult, error) {
	res := NewFileResult(path)

	for row, err := range rows {
		if cerr := ctx.Err(); cerr != nil {
			return res, cerr
		}

		if err != nil {
			table, record := "unknown", 0
			var re *transformer.RecordError
			if errors.As(err, &re) {
				table, record = re.Table, re.Record
			}
			logger.Warn("Error: Transforming record for "+table,
				zap.String("file", path), zap.Int("record", record), zap.Error(err))
			res.fail(table, record, err)
			continue
		}

		table := row.Table.Name
		if err := tx.Insert(ctx, row); err != nil {
			logger.Warn("Error: Inserting Rows for "+table,
				zap.String("file", path), zap.Int("record", row.Record), zap.Error(err))
			res.fail(table, row.Record, err)
			continue
		}
		res.Inserted[table]++
	}
	return res, nil
}
