package transformer

import (
	"iter"

	"sparkify/internal/schema"
	"sparkify/pkg/records"
)

// SongRow maps a song-metadata record onto its songs row. Values are copied
// as-is; nulls stay null.
func SongRow(rec records.Record) (schema.Song, error) {
	var (
		s   schema.Song
		err error
	)
	if s.SongID, err = rec.RequiredString("song_id"); err != nil {
		return s, err
	}
	if s.ArtistID, err = rec.RequiredString("artist_id"); err != nil {
		return s, err
	}
	if s.Title, err = rec.NullString("title"); err != nil {
		return s, err
	}
	if s.Year, err = rec.NullInt64("year"); err != nil {
		return s, err
	}
	if s.Duration, err = rec.NullFloat64("duration"); err != nil {
		return s, err
	}
	return s, nil
}

// ArtistRow maps a song-metadata record onto its artists row. It reads only
// the artist_* fields, so a bad song field never affects it.
func ArtistRow(rec records.Record) (schema.Artist, error) {
	var (
		a   schema.Artist
		err error
	)
	if a.ArtistID, err = rec.RequiredString("artist_id"); err != nil {
		return a, err
	}
	if a.Name, err = rec.NullString("artist_name"); err != nil {
		return a, err
	}
	if a.Location, err = rec.NullString("artist_location"); err != nil {
		return a, err
	}
	if a.Latitude, err = rec.NullFloat64("artist_latitude"); err != nil {
		return a, err
	}
	if a.Longitude, err = rec.NullFloat64("artist_longitude"); err != nil {
		return a, err
	}
	return a, nil
}

// SongFileRows yields, per record, its songs item followed by its artists
// item. Each is a row or a *RecordError for that table; one failing does
// not suppress the other.
func SongFileRows(recs []records.Record) iter.Seq2[schema.Row, error] {
	return func(yield func(schema.Row, error) bool) {
		for i, rec := range recs {
			n := i + 1

			s, err := SongRow(rec)
			if !yieldRow(yield, schema.TableSongs, n, s.Row(n), err) {
				return
			}
			a, err := ArtistRow(rec)
			if !yieldRow(yield, schema.TableArtists, n, a.Row(n), err) {
				return
			}
		}
	}
}

// yieldRow yields row, or a *RecordError for table when err is set.
func yieldRow(yield func(schema.Row, error) bool, table string, n int, row schema.Row, err error) bool {
	if err != nil {
		return yield(schema.Row{}, &RecordError{Table: table, Record: n, Err: err})
	}
	return yield(row, nil)
}
