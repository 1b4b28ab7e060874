package leaderboard

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders entries by total points, correct scorelines and correct outcomes (all
// descending), then username and user id ascending. Empty or duplicate usernames fall
// through to the user id so the order is total.
func Compare(a, b Entry) int {
	if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
		return c
	}
	if c := cmp.Compare(b.CorrectScorelines, a.CorrectScorelines); c != 0 {
		return c
	}
	if c := cmp.Compare(b.CorrectOutcomes, a.CorrectOutcomes); c != 0 {
		return c
	}
	if c := compareUsernames(a.Username, b.Username); c != 0 {
		return c
	}
	return cmp.Compare(a.UserID, b.UserID)
}

func compareUsernames(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return cmp.Compare(a, b)
}

// SortEntries sorts in place.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, Compare)
}

// AssignRanks sets 1-indexed ranks following slice order.
func AssignRanks(entries []Entry) {
	for idx := range entries {
		entries[idx].Rank = idx + 1
	}
}

// Ranked returns a sorted, ranked copy.
func Ranked(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	SortEntries(out)
	AssignRanks(out)
	return out
}
