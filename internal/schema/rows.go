package schema

import (
	"database/sql"
	"time"

	"sparkify/internal/ddl"
)

// Row is one insert against a table. Values are aligned with
// Table.InsertColumns().
type Row struct {
	Table  *ddl.TableDef
	Values []any

	// Record is the 1-based index of the source record within its file.
	Record int
}

// Song is a row of the songs table.
type Song struct {
	SongID   string
	Title    sql.NullString
	ArtistID string
	Year     sql.NullInt64
	Duration sql.NullFloat64
}

// Row converts s into an insertable row.
func (s Song) Row(record int) Row {
	return Row{Table: &Songs, Record: record, Values: []any{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}}
}

// Artist is a row of the artists table.
type Artist struct {
	ArtistID  string
	Name      sql.NullString
	Location  sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
}

// Row converts a into an insertable row.
func (a Artist) Row(record int) Row {
	return Row{Table: &Artists, Record: record, Values: []any{a.ArtistID, a.Name, a.Location, a.Latitude, a.Longitude}}
}

// TimeUnits is a row of the time table.
type TimeUnits struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	// Weekday counts from Monday=0 to Sunday=6.
	Weekday int
}

// Row converts t into an insertable row.
func (t TimeUnits) Row(record int) Row {
	return Row{Table: &Time, Record: record, Values: []any{t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday}}
}

// User is a row of the users table.
type User struct {
	UserID    int64
	FirstName sql.NullString
	LastName  sql.NullString
	Gender    sql.NullString
	Level     sql.NullString
}

// Row converts u into an insertable row.
func (u User) Row(record int) Row {
	return Row{Table: &Users, Record: record, Values: []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}}
}

// Songplay is a row of the songplays table; the id is generated by the store.
type Songplay struct {
	StartTime time.Time
	UserID    int64
	Level     sql.NullString
	SongID    sql.NullString
	ArtistID  sql.NullString
	SessionID sql.NullInt64
	Location  sql.NullString
	UserAgent sql.NullString
}

// Row converts p into an insertable row.
func (p Songplay) Row(record int) Row {
	return Row{Table: &Songplays, Record: record, Values: []any{
		p.StartTime, p.UserID, p.Level, p.SongID, p.ArtistID, p.SessionID, p.Location, p.UserAgent,
	}}
}
