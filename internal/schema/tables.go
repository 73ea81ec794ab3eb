// Package schema describes the star schema loaded by the pipeline: the
// songplays fact table and the songs, artists, users and time dimensions.
package schema

import "sparkify/internal/ddl"

// Table names.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableTime      = "time"
	TableUsers     = "users"
	TableSongplays = "songplays"
)

var (
	// Songs holds one row per song-metadata record.
	Songs = ddl.TableDef{Name: TableSongs, Columns: []ddl.ColumnDef{
		{Name: "song_id", Type: ddl.TypeKey, PrimaryKey: true},
		{Name: "title", Type: ddl.TypeText},
		{Name: "artist_id", Type: ddl.TypeKey},
		{Name: "year", Type: ddl.TypeInt, Nullable: true},
		{Name: "duration", Type: ddl.TypeDouble, Nullable: true},
	}}

	// Artists holds one row per song-metadata record's artist.
	Artists = ddl.TableDef{Name: TableArtists, Columns: []ddl.ColumnDef{
		{Name: "artist_id", Type: ddl.TypeKey, PrimaryKey: true},
		{Name: "name", Type: ddl.TypeText},
		{Name: "location", Type: ddl.TypeText, Nullable: true},
		{Name: "latitude", Type: ddl.TypeDouble, Nullable: true},
		{Name: "longitude", Type: ddl.TypeDouble, Nullable: true},
	}}

	// Time breaks each play timestamp into calendar units.
	Time = ddl.TableDef{Name: TableTime, Columns: []ddl.ColumnDef{
		{Name: "start_time", Type: ddl.TypeTimestamp, PrimaryKey: true},
		{Name: "hour", Type: ddl.TypeInt},
		{Name: "day", Type: ddl.TypeInt},
		{Name: "week", Type: ddl.TypeInt},
		{Name: "month", Type: ddl.TypeInt},
		{Name: "year", Type: ddl.TypeInt},
		{Name: "weekday", Type: ddl.TypeInt},
	}}

	// Users holds one row per user seen in play events.
	Users = ddl.TableDef{Name: TableUsers, Columns: []ddl.ColumnDef{
		{Name: "user_id", Type: ddl.TypeBigInt, PrimaryKey: true},
		{Name: "first_name", Type: ddl.TypeText, Nullable: true},
		{Name: "last_name", Type: ddl.TypeText, Nullable: true},
		{Name: "gender", Type: ddl.TypeText, Nullable: true},
		{Name: "level", Type: ddl.TypeText},
	}}

	// Songplays is the fact table. song_id and artist_id are NULL when the
	// play could not be matched to a known song.
	Songplays = ddl.TableDef{Name: TableSongplays, Columns: []ddl.ColumnDef{
		{Name: "songplay_id", Type: ddl.TypeIdentity, PrimaryKey: true},
		{Name: "start_time", Type: ddl.TypeTimestamp},
		{Name: "user_id", Type: ddl.TypeBigInt},
		{Name: "level", Type: ddl.TypeText},
		{Name: "song_id", Type: ddl.TypeKey, Nullable: true},
		{Name: "artist_id", Type: ddl.TypeKey, Nullable: true},
		{Name: "session_id", Type: ddl.TypeBigInt, Nullable: true},
		{Name: "location", Type: ddl.TypeText, Nullable: true},
		{Name: "user_agent", Type: ddl.TypeText, Nullable: true},
	}}
)

// Tables returns every table in creation order.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{Songs, Artists, Time, Users, Songplays}
}
