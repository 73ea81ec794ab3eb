package transformer

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"sparkify/internal/schema"
	"sparkify/pkg/records"
)

// PlayTime converts an epoch-milliseconds timestamp into UTC.
func PlayTime(tsMillis int64) time.Time {
	return time.UnixMilli(tsMillis).UTC()
}

// TimeRow derives the calendar units of tsMillis. Week is the ISO 8601 week
// number and Weekday counts from Monday=0.
func TimeRow(tsMillis int64) schema.TimeUnits {
	t := PlayTime(tsMillis)
	_, week := t.ISOWeek()
	return schema.TimeUnits{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

// UserRow copies the user fields of an event.
func UserRow(rec records.Record) (schema.User, error) {
	var (
		u   schema.User
		err error
	)
	if u.UserID, err = rec.RequiredInt64("userId"); err != nil {
		return u, err
	}
	if u.FirstName, err = rec.NullString("firstName"); err != nil {
		return u, err
	}
	if u.LastName, err = rec.NullString("lastName"); err != nil {
		return u, err
	}
	if u.Gender, err = rec.NullString("gender"); err != nil {
		return u, err
	}
	if u.Level, err = rec.NullString("level"); err != nil {
		return u, err
	}
	return u, nil
}

// SongplayRow builds the fact row for one play event. The song and artist ids
// are both NULL unless lookup finds an exact (title, artist, duration) match.
func SongplayRow(ctx context.Context, rec records.Record, lookup Lookup) (schema.Songplay, error) {
	var (
		p   schema.Songplay
		err error
	)

	ts, err := rec.RequiredInt64("ts")
	if err != nil {
		return p, err
	}
	p.StartTime = PlayTime(ts)
	if p.UserID, err = rec.RequiredInt64("userId"); err != nil {
		return p, err
	}
	if p.Level, err = rec.NullString("level"); err != nil {
		return p, err
	}
	if p.SessionID, err = rec.NullInt64("sessionId"); err != nil {
		return p, err
	}
	if p.Location, err = rec.NullString("location"); err != nil {
		return p, err
	}
	if p.UserAgent, err = rec.NullString("userAgent"); err != nil {
		return p, err
	}

	title, err := rec.NullString("song")
	if err != nil {
		return p, err
	}
	artist, err := rec.NullString("artist")
	if err != nil {
		return p, err
	}
	length, err := rec.NullFloat64("length")
	if err != nil {
		return p, err
	}
	if !title.Valid || !artist.Valid || !length.Valid || lookup == nil {
		return p, nil
	}

	songID, artistID, found, err := lookup.LookupSong(ctx, title.String, artist.String, length.Float64)
	if err != nil {
		return p, fmt.Errorf("lookup song: %w", err)
	}
	if found {
		p.SongID = sql.NullString{String: songID, Valid: true}
		p.ArtistID = sql.NullString{String: artistID, Valid: true}
	}
	return p, nil
}

// LogFileRows filters recs to song plays and yields every time row, then every
// users row, then every songplays row, each in record order. Record numbers
// refer to positions in the unfiltered file.
func LogFileRows(ctx context.Context, recs []records.Record, lookup Lookup) iter.Seq2[schema.Row, error] {
	plays := FilterPlays(recs)

	return func(yield func(schema.Row, error) bool) {
		for _, p := range plays {
			ts, err := p.Rec.RequiredInt64("ts")
			var row schema.Row
			if err == nil {
				row = TimeRow(ts).Row(p.Record)
			}
			if !yieldRow(yield, schema.TableTime, p.Record, row, err) {
				return
			}
		}
		for _, p := range plays {
			u, err := UserRow(p.Rec)
			if !yieldRow(yield, schema.TableUsers, p.Record, u.Row(p.Record), err) {
				return
			}
		}
		for _, p := range plays {
			sp, err := SongplayRow(ctx, p.Rec, lookup)
			if !yieldRow(yield, schema.TableSongplays, p.Record, sp.Row(p.Record), err) {
				return
			}
		}
	}
}
