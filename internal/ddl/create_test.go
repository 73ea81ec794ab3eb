package ddl

import (
	"strings"
	"testing"
)

var testDialect = Dialect{
	Quote: func(s string) string { return `"` + s + `"` },
	Types: map[Type]string{
		TypeKey:      "TEXT",
		TypeText:     "TEXT",
		TypeInt:      "INT",
		TypeDouble:   "DOUBLE PRECISION",
		TypeIdentity: "BIGSERIAL",
	},
}

// TestBuildCreateTableSQL verifies rendering and input validation using
// table-driven subtests.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		dialect     Dialect
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty name returns error",
			dialect:     testDialect,
			def:         TableDef{Columns: []ColumnDef{{Name: "id"}}},
			errContains: "table name must not be empty",
		},
		{
			name:        "no columns returns error",
			dialect:     testDialect,
			def:         TableDef{Name: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "unmapped type returns error",
			dialect:     testDialect,
			def:         TableDef{Name: "t", Columns: []ColumnDef{{Name: "ts", Type: TypeTimestamp}}},
			errContains: "no SQL type",
		},
		{
			name:    "key and nullable columns",
			dialect: testDialect,
			def: TableDef{Name: "artists", Columns: []ColumnDef{
				{Name: "artist_id", Type: TypeKey, PrimaryKey: true},
				{Name: "latitude", Type: TypeDouble, Nullable: true},
			}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"artists\" (\n  \"artist_id\" TEXT NOT NULL,\n  \"latitude\" DOUBLE PRECISION,\n  PRIMARY KEY (\"artist_id\")\n)",
		},
		{
			name:    "identity column skips NOT NULL",
			dialect: testDialect,
			def: TableDef{Name: "songplays", Columns: []ColumnDef{
				{Name: "songplay_id", Type: TypeIdentity, PrimaryKey: true},
				{Name: "level", Type: TypeText},
			}},
			wantSQL: "CREATE TABLE IF NOT EXISTS \"songplays\" (\n  \"songplay_id\" BIGSERIAL,\n  \"level\" TEXT NOT NULL,\n  PRIMARY KEY (\"songplay_id\")\n)",
		},
		{
			name: "guard replaces IF NOT EXISTS",
			dialect: Dialect{
				Types: map[Type]string{TypeInt: "INT"},
				Guard: func(table, stmt string) string { return "IF missing(" + table + ") " + stmt },
			},
			def:     TableDef{Name: "t", Columns: []ColumnDef{{Name: "n", Type: TypeInt, Nullable: true}}},
			wantSQL: "IF missing(t) CREATE TABLE t (\n  n INT\n)",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tc.dialect, tc.def)
			if tc.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("err = %v; want containing %q", err, tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantSQL {
				t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, tc.wantSQL)
			}
		})
	}
}

func TestInsertAndKeyColumns(t *testing.T) {
	def := TableDef{Name: "songplays", Columns: []ColumnDef{
		{Name: "songplay_id", Type: TypeIdentity, PrimaryKey: true},
		{Name: "start_time", Type: TypeTimestamp},
		{Name: "user_id", Type: TypeBigInt},
	}}
	if got := strings.Join(def.InsertColumns(), ","); got != "start_time,user_id" {
		t.Fatalf("InsertColumns = %q", got)
	}
	if got := def.KeyColumns(); len(got) != 0 {
		t.Fatalf("KeyColumns = %v; want none", got)
	}
}
