package ddl

import (
	"context"
	"strings"
	"testing"

	gddl "sparkify/internal/ddl"
	"sparkify/internal/schema"
	"sparkify/internal/storage"
)

type fakeRepository struct {
	storage.Repository
	sqls []string
}

func (f *fakeRepository) Exec(ctx context.Context, sql string) error {
	f.sqls = append(f.sqls, sql)
	return nil
}

func TestEnsureTables(t *testing.T) {
	t.Parallel()

	var repo fakeRepository
	if err := EnsureTables(context.Background(), &repo, schema.Tables()); err != nil {
		t.Fatalf("EnsureTables() error = %v", err)
	}
	if len(repo.sqls) != 5 || !strings.HasPrefix(repo.sqls[0], "CREATE TABLE IF NOT EXISTS `songs`") {
		t.Fatalf("unexpected statements: %q", repo.sqls)
	}
}

func TestBuildCreateTableSQLTime(t *testing.T) {
	t.Parallel()

	got, err := gddl.BuildCreateTableSQL(Dialect, schema.Time)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `time` (\n" +
		"  `start_time` DATETIME(3) NOT NULL,\n" +
		"  `hour` INT NOT NULL,\n" +
		"  `day` INT NOT NULL,\n" +
		"  `week` INT NOT NULL,\n" +
		"  `month` INT NOT NULL,\n" +
		"  `year` INT NOT NULL,\n" +
		"  `weekday` INT NOT NULL,\n" +
		"  PRIMARY KEY (`start_time`)\n" +
		")"
	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := QuoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("QuoteIdent = %q", got)
	}
}
