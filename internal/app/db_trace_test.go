package app

import (
	"strings"
	"testing"
)

func TestFormatDBQueryForTrace(t *testing.T) {
	t.Parallel()

	got := formatDBQueryForTrace(`INSERT INTO leaderboard_entries (user_public_id)
VALUES ($1)
ON CONFLICT (organization_public_id, season, user_public_id)
DO UPDATE SET    total_points = EXCLUDED.total_points`)
	want := "INSERT INTO leaderboard_entries (user_public_id) VALUES ($1) ON CONFLICT (organization_public_id, season, user_public_id) DO UPDATE SET total_points = EXCLUDED.total_points"
	if got != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, got)
	}

	if got := formatDBQueryForTrace("   "); got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}

	long := "SELECT '" + strings.Repeat("é", maxTracedQueryLength) + "'"
	truncated := formatDBQueryForTrace(long)
	if !strings.HasSuffix(truncated, "...") || len(truncated) > maxTracedQueryLength+3 {
		t.Fatalf("unexpected truncation length: %d", len(truncated))
	}
	if !strings.HasPrefix(long, strings.TrimSuffix(truncated, "...")) {
		t.Fatalf("truncation must keep a valid prefix")
	}
	if strings.ContainsRune(truncated, '�') {
		t.Fatalf("truncation split a multi-byte rune")
	}
}
