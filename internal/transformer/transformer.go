// Package transformer turns parsed source records into warehouse rows.
//
// Song-metadata records map one-to-one onto a songs row and an artists row.
// Event-log records are filtered to song plays and fan out into time, users
// and songplays rows; the songplay's song and artist ids are resolved through
// a Lookup against the already loaded dimensions.
//
// Row producers return iter.Seq2[schema.Row, error]. A non-nil error item is a
// *RecordError for one record; the sequence keeps going after it.
package transformer

import (
	"fmt"

	"sparkify/pkg/records"
)

// PlayPage is the page value that marks an actual song play in the event log.
const PlayPage = "NextSong"

// PageFilter keeps the records whose "page" field equals Page.
type PageFilter struct {
	Page string
}

// Keep reports whether r passes the filter.
func (f PageFilter) Keep(r records.Record) bool {
	p, ok := r["page"].(string)
	return ok && p == f.Page
}

// Play is a retained song-play event. Record is its 1-based position in the
// unfiltered file.
type Play struct {
	Record int
	Rec    records.Record
}

// FilterPlays keeps only song-play events, in file order.
func FilterPlays(in []records.Record) []Play {
	filter := PageFilter{Page: PlayPage}
	var out []Play
	for i, r := range in {
		if filter.Keep(r) {
			out = append(out, Play{Record: i + 1, Rec: r})
		}
	}
	return out
}

// RecordError reports a record that could not be turned into a row for
// Table. Record is the 1-based position of the record in its file.
type RecordError struct {
	Table  string
	Record int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.Table, e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
