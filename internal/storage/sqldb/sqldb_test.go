package sqldb

import (
	"strings"
	"testing"

	"sparkify/internal/ddl"
	"sparkify/internal/schema"
	"sparkify/internal/storage"
)

var plainDialect = Dialect{
	Name:   "test",
	Driver: "test",
	Syntax: storage.Syntax{Quote: storage.QuoteDouble, Placeholder: storage.QuestionMark},
}.StandardSavepoints()

func TestNewRepositoryRendersEveryTable(t *testing.T) {
	t.Parallel()

	r, err := newRepository(plainDialect, "")
	if err != nil {
		t.Fatalf("newRepository error: %v", err)
	}
	if r.policy != storage.ConflictError {
		t.Fatalf("policy = %q; want default %q", r.policy, storage.ConflictError)
	}
	for _, tbl := range schema.Tables() {
		stmt, ok := r.inserts[tbl.Name]
		if !ok {
			t.Fatalf("no insert rendered for %s", tbl.Name)
		}
		if !strings.HasPrefix(stmt, `INSERT INTO "`+tbl.Name+`"`) {
			t.Errorf("insert for %s = %q", tbl.Name, stmt)
		}
	}
	if !strings.HasSuffix(r.lookup, "LIMIT 1") {
		t.Errorf("lookup = %q", r.lookup)
	}
}

func TestNewRepositoryRejectsUnsupportedPolicy(t *testing.T) {
	t.Parallel()

	if _, err := newRepository(plainDialect, storage.ConflictIgnore); err == nil {
		t.Fatalf("newRepository(ignore) error = nil; dialect has no conflict clause")
	}
}

func TestInsertSQLCachesUnknownTables(t *testing.T) {
	t.Parallel()

	r, err := newRepository(plainDialect, storage.ConflictError)
	if err != nil {
		t.Fatalf("newRepository error: %v", err)
	}
	extra := &ddl.TableDef{Name: "extra", Columns: []ddl.ColumnDef{{Name: "id", Type: ddl.TypeKey, PrimaryKey: true}}}
	stmt, err := r.insertSQL(extra)
	if err != nil {
		t.Fatalf("insertSQL error: %v", err)
	}
	if stmt != `INSERT INTO "extra" ("id") VALUES (?)` {
		t.Fatalf("insertSQL = %q", stmt)
	}
	if _, ok := r.inserts["extra"]; !ok {
		t.Fatalf("statement for extra not cached")
	}
}

func TestStandardSavepoints(t *testing.T) {
	t.Parallel()

	d := Dialect{}.StandardSavepoints()
	if got := d.Savepoint("x"); got != "SAVEPOINT x" {
		t.Errorf("Savepoint = %q", got)
	}
	if got := d.RollbackTo("x"); got != "ROLLBACK TO SAVEPOINT x" {
		t.Errorf("RollbackTo = %q", got)
	}
	if got := d.Release("x"); got != "RELEASE SAVEPOINT x" {
		t.Errorf("Release = %q", got)
	}
}
