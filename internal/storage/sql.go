package storage

import (
	"fmt"
	"strings"

	"sparkify/internal/ddl"
)

// Syntax is the slice of a SQL dialect needed to build DML.
type Syntax struct {
	// Quote quotes one identifier.
	Quote func(string) string

	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string

	// OnConflict renders the clause appended to an INSERT for policies other
	// than ConflictError. keys are the quoted primary key columns, cols the
	// quoted non-key columns. Nil means only ConflictError is supported.
	OnConflict func(policy ConflictPolicy, keys, cols []string) string

	// Limit1 wraps a SELECT so that at most one row is returned.
	Limit1 func(selectSQL string) string
}

// BuildInsert renders the parameterized INSERT for t under policy. Tables
// without a client-supplied key always get a plain INSERT.
func BuildInsert(sx Syntax, t ddl.TableDef, policy ConflictPolicy) (string, error) {
	cols := t.InsertColumns()
	if len(cols) == 0 {
		return "", fmt.Errorf("storage: table %s has no insertable columns", t.Name)
	}

	quoted := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = sx.Quote(c)
		ph[i] = sx.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sx.Quote(t.Name), strings.Join(quoted, ", "), strings.Join(ph, ", "))

	keys := t.KeyColumns()
	if policy == "" || policy == ConflictError || len(keys) == 0 {
		return stmt, nil
	}
	if sx.OnConflict == nil {
		return "", fmt.Errorf("storage: conflict policy %q is not supported by this backend", policy)
	}

	keySet := make(map[string]bool, len(keys))
	qkeys := make([]string, len(keys))
	for i, k := range keys {
		keySet[k] = true
		qkeys[i] = sx.Quote(k)
	}
	var rest []string
	for _, c := range cols {
		if !keySet[c] {
			rest = append(rest, sx.Quote(c))
		}
	}
	return stmt + " " + sx.OnConflict(policy, qkeys, rest), nil
}

// BuildLookup renders the song/artist match query. Its three parameters are
// title, artist name and duration; it returns (song_id, artist_id).
func BuildLookup(sx Syntax) string {
	q := sx.Quote
	sel := fmt.Sprintf(
		"SELECT s.%s, s.%s FROM %s s JOIN %s a ON a.%s = s.%s WHERE s.%s = %s AND a.%s = %s AND s.%s = %s ORDER BY s.%s, s.%s",
		q("song_id"), q("artist_id"),
		q("songs"), q("artists"), q("artist_id"), q("artist_id"),
		q("title"), sx.Placeholder(1),
		q("name"), sx.Placeholder(2),
		q("duration"), sx.Placeholder(3),
		q("song_id"), q("artist_id"),
	)
	if sx.Limit1 != nil {
		return sx.Limit1(sel)
	}
	return sel + " LIMIT 1"
}

// OnConflictDoClause renders the Postgres/SQLite "ON CONFLICT" clause.
func OnConflictDoClause(policy ConflictPolicy, keys, cols []string) string {
	target := "(" + strings.Join(keys, ", ") + ")"
	if policy == ConflictUpdate && len(cols) > 0 {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		return "ON CONFLICT " + target + " DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return "ON CONFLICT " + target + " DO NOTHING"
}

// QuoteDouble quotes an identifier with double quotes (ANSI).
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }
