package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("user_public_id", "COALESCE(SUM(points), 0) AS total_points").
		From("predictions").
		Where(Eq("organization_public_id", "org-1"), IsNull("deleted_at")).
		GroupBy("user_public_id").
		OrderBy("user_public_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT user_public_id, COALESCE(SUM(points), 0) AS total_points FROM predictions WHERE organization_public_id = $1 AND deleted_at IS NULL GROUP BY user_public_id ORDER BY user_public_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "org-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RangeConditions(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := Select("*").
		From("fixtures").
		Where(
			In("status", []any{"FINISHED", "AWARDED"}),
			Gte("updated_at", since),
			Lte("season", 2025),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM fixtures WHERE status IN ($1, $2) AND updated_at >= $3 AND season <= $4"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != since || args[3] != 2025 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("leaderboard_meta").
		Columns("organization_public_id", "season").
		Values("org-1", 2025).
		Suffix("ON CONFLICT (organization_public_id, season) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO leaderboard_meta (organization_public_id, season) VALUES ($1, $2) ON CONFLICT (organization_public_id, season) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "org-1" || args[1] != 2025 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		Key     string `db:"key"`
		Value   []byte `db:"value"`
		Skipped string `db:"-"`
		hidden  string
	}

	query, args, err := InsertModel("cache_entries", row{Key: "k", Value: []byte("v"), hidden: "x"}, "")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}
	wantQuery := "INSERT INTO cache_entries (key, value) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "k" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("cache_entries", (*row)(nil), ""); err == nil {
		t.Fatalf("expected nil model error")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("predictions").
		Set("points", 6).
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "p1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE predictions SET points = $1, updated_at = NOW() WHERE public_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != 6 || args[1] != "p1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("leaderboard_entries").
		Where(Eq("organization_public_id", "org-1"), Eq("season", 2025)).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM leaderboard_entries WHERE organization_public_id = $1 AND season = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("leaderboard_entries").ToSQL(); err == nil {
		t.Fatalf("expected unscoped delete to be rejected")
	}
}

func TestInsertModels(t *testing.T) {
	type entry struct {
		UserID string `db:"user_public_id"`
		Points int    `db:"total_points"`
	}

	query, args, err := InsertModels("leaderboard_entries", []entry{{"u1", 6}, {"u2", 4}}, "")
	if err != nil {
		t.Fatalf("build insert models query: %v", err)
	}
	wantQuery := "INSERT INTO leaderboard_entries (user_public_id, total_points) VALUES ($1, $2), ($3, $4)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != "u2" || args[3] != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModels[entry]("leaderboard_entries", nil, ""); err == nil {
		t.Fatalf("expected error for empty rows")
	}
	if _, _, err := InsertModels("leaderboard_entries", []any{entry{"u1", 1}, struct {
		Key string `db:"key"`
	}{"k"}}, ""); err == nil {
		t.Fatalf("expected column mismatch error")
	}
}

func TestExprAndEmptyIn(t *testing.T) {
	query, args, err := Select("key").
		From("cache_entries").
		Where(
			Expr("(expires_at IS NULL OR expires_at > ?)", "2025-01-01"),
			In("key", nil),
			Expr("value ? 'rank'"),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT key FROM cache_entries WHERE (expires_at IS NULL OR expires_at > $1) AND 1=0 AND value ? 'rank'"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
