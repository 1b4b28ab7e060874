package leaderboard

import "testing"

func TestSortEntries_TieBreakers(t *testing.T) {
	entries := []Entry{
		{UserID: "u-b", Username: "bob", TotalPoints: 10, CorrectScorelines: 2, CorrectOutcomes: 4},
		{UserID: "u-a", Username: "alice", TotalPoints: 10, CorrectScorelines: 3, CorrectOutcomes: 1},
		{UserID: "u-c", Username: "Carol", TotalPoints: 10, CorrectScorelines: 2, CorrectOutcomes: 4},
	}

	ranked := Ranked(entries)
	want := []string{"u-a", "u-b", "u-c"}
	for idx, entry := range ranked {
		if entry.UserID != want[idx] {
			t.Fatalf("unexpected order at %d: got=%s want=%s", idx, entry.UserID, want[idx])
		}
		if entry.Rank != idx+1 {
			t.Fatalf("unexpected rank for %s: got=%d want=%d", entry.UserID, entry.Rank, idx+1)
		}
	}
	if entries[0].UserID != "u-b" || entries[0].Rank != 0 {
		t.Fatalf("ranked must not mutate its input")
	}
}

func TestSortEntries_UsernameCaseInsensitive(t *testing.T) {
	entries := []Entry{
		{UserID: "u-1", Username: "zed", TotalPoints: 5},
		{UserID: "u-2", Username: "Anna", TotalPoints: 5},
		{UserID: "u-3", Username: "anna", TotalPoints: 5},
	}
	SortEntries(entries)

	if entries[0].UserID != "u-2" || entries[1].UserID != "u-3" || entries[2].UserID != "u-1" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].UserID, entries[1].UserID, entries[2].UserID)
	}
}

func TestSortEntries_EmptyUsernameFallsBackToUserID(t *testing.T) {
	entries := []Entry{
		{UserID: "u-2", TotalPoints: 1},
		{UserID: "u-3", Username: "mia", TotalPoints: 1},
		{UserID: "u-1", TotalPoints: 1},
	}
	SortEntries(entries)

	if entries[0].UserID != "u-3" || entries[1].UserID != "u-1" || entries[2].UserID != "u-2" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].UserID, entries[1].UserID, entries[2].UserID)
	}
}

func TestSortEntries_PointsDominate(t *testing.T) {
	entries := []Entry{
		{UserID: "u-1", Username: "a", TotalPoints: 3, CorrectScorelines: 1},
		{UserID: "u-2", Username: "b", TotalPoints: 4, CorrectOutcomes: 4},
	}
	ranked := Ranked(entries)
	if ranked[0].UserID != "u-2" {
		t.Fatalf("higher points must rank first, got %s", ranked[0].UserID)
	}
}

func TestMeta_Merge(t *testing.T) {
	total := 10
	calculating := true
	base := Meta{OrganizationID: "org-1", Season: 2025, FinishedMatches: 4}

	merged := base.Merge(MetaUpdate{TotalMatches: &total, IsCalculating: &calculating})
	if merged.TotalMatches != 10 || merged.FinishedMatches != 4 || !merged.IsCalculating {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
	if base.TotalMatches != 0 {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestEntry_ApplyAndConsistent(t *testing.T) {
	entry := Entry{UserID: "u-1"}.Apply(Delta{Points: 3, CorrectScorelines: 1, CompletedFixtures: 1})
	if entry.TotalPoints != 3 || entry.PredictedFixtures != 1 || !entry.Consistent() {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	counted := Entry{UserID: "u-2", PredictedFixtures: 4, CompletedFixtures: 1}.Apply(Delta{Points: 1, CorrectOutcomes: 1, CompletedFixtures: 1})
	if counted.PredictedFixtures != 4 || counted.CompletedFixtures != 2 {
		t.Fatalf("delta must not move predicted fixtures: got=%d want=4", counted.PredictedFixtures)
	}
	broken := Entry{CorrectScorelines: 2, CompletedFixtures: 1, PredictedFixtures: 1}
	if broken.Consistent() {
		t.Fatalf("entry with more hits than completed fixtures must be inconsistent")
	}
}

func TestKeys(t *testing.T) {
	if got := EntriesKey("org-1", 2025); got != "leaderboard:org-1:2025" {
		t.Fatalf("unexpected entries key: %s", got)
	}
	if got := MetaKey("org-1", 2025); got != "leaderboard:meta:org-1:2025" {
		t.Fatalf("unexpected meta key: %s", got)
	}
	if got := LockKey("org-1", 2025); got != "leaderboard:lock:org-1:2025" {
		t.Fatalf("unexpected lock key: %s", got)
	}
}

func TestSortEntries_ScorelinesThenOutcomes(t *testing.T) {
	entries := []Entry{
		{UserID: "u-bob", Username: "Bob", TotalPoints: 10, CorrectScorelines: 2, CorrectOutcomes: 0},
		{UserID: "u-ann", Username: "Ann", TotalPoints: 10, CorrectScorelines: 1, CorrectOutcomes: 3},
		{UserID: "u-zed", Username: "Zed", TotalPoints: 10, CorrectScorelines: 1, CorrectOutcomes: 1},
	}
	shuffled := []Entry{entries[2], entries[0], entries[1]}

	ranked := Ranked(shuffled)
	want := []string{"u-bob", "u-ann", "u-zed"}
	for idx, entry := range ranked {
		if entry.UserID != want[idx] || entry.Rank != idx+1 {
			t.Fatalf("unexpected entry at %d: got=%s rank=%d want=%s", idx, entry.UserID, entry.Rank, want[idx])
		}
	}
}
