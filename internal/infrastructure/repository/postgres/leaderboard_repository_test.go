package postgres

import (
	"testing"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
)

func TestLeaderboardRepositoryEntryRow(t *testing.T) {
	now := time.Date(2025, 9, 14, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	repo := &LeaderboardRepository{now: func() time.Time { return now }}

	row := repo.entryRow("org-1", 2025, leaderboard.Entry{
		UserID:            "u1",
		Username:          "Uma",
		OrganizationID:    "ignored",
		Season:            1999,
		TotalPoints:       9,
		CorrectScorelines: 2,
		Rank:              1,
	})
	if row.OrganizationID != "org-1" || row.Season != 2025 {
		t.Fatalf("row must be scoped to the replaced leaderboard: %+v", row)
	}
	if row.TotalPoints != 9 || row.CorrectScorelines != 2 || row.Rank != 1 {
		t.Fatalf("unexpected stats: %+v", row)
	}
	if !row.LastUpdated.Equal(now) || row.LastUpdated.Location() != time.UTC {
		t.Fatalf("missing last_updated must default to now in UTC, got %v", row.LastUpdated)
	}

	stamped := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if got := repo.entryRow("org-1", 2025, leaderboard.Entry{UserID: "u2", LastUpdated: stamped}); !got.LastUpdated.Equal(stamped) {
		t.Fatalf("unexpected last_updated: got=%v want=%v", got.LastUpdated, stamped)
	}
}

func TestLeaderboardRepositoryDeltaRow(t *testing.T) {
	now := time.Date(2025, 9, 14, 8, 0, 0, 0, time.UTC)
	repo := &LeaderboardRepository{now: func() time.Time { return now }}

	row := repo.deltaRow("org-1", 2025, "u1", "Uma", leaderboard.Delta{Points: 3, CorrectScorelines: 1, CompletedFixtures: 1})
	if row.UserID != "u1" || row.Username != "Uma" {
		t.Fatalf("created row must carry the user: %+v", row)
	}
	if row.TotalPoints != 3 || row.CorrectScorelines != 1 || row.CompletedFixtures != 1 {
		t.Fatalf("unexpected stats: %+v", row)
	}
	if row.PredictedFixtures != 1 {
		t.Fatalf("predicted fixtures must cover completed ones: got=%d want=1", row.PredictedFixtures)
	}
	if !row.LastUpdated.Equal(now) {
		t.Fatalf("unexpected last_updated: got=%v want=%v", row.LastUpdated, now)
	}
}
