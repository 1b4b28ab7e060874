package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
)

type scopeKey struct {
	organizationID string
	season         int
}

type LeaderboardRepository struct {
	mu      sync.RWMutex
	entries map[scopeKey]map[string]leaderboard.Entry
	meta    map[scopeKey]leaderboard.Meta
	now     func() time.Time
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{
		entries: make(map[scopeKey]map[string]leaderboard.Entry),
		meta:    make(map[scopeKey]leaderboard.Meta),
		now:     time.Now,
	}
}

func (r *LeaderboardRepository) ListEntries(_ context.Context, organizationID string, season int) ([]leaderboard.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.entries[scopeKey{organizationID: organizationID, season: season}]
	out := make([]leaderboard.Entry, 0, len(rows))
	for _, entry := range rows {
		out = append(out, entry)
	}
	leaderboard.SortEntries(out)
	return out, nil
}

func (r *LeaderboardRepository) ApplyEntryDelta(_ context.Context, organizationID string, season int, userID, username string, delta leaderboard.Delta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scopeKey{organizationID: organizationID, season: season}
	rows, ok := r.entries[key]
	if !ok {
		rows = make(map[string]leaderboard.Entry)
		r.entries[key] = rows
	}

	entry, ok := rows[userID]
	if !ok {
		entry = leaderboard.Entry{UserID: userID, OrganizationID: organizationID, Season: season}
	}
	if entry.Username == "" {
		entry.Username = username
	}
	entry = entry.Apply(delta)
	entry.LastUpdated = r.now().UTC()
	rows[userID] = entry
	return nil
}

func (r *LeaderboardRepository) ReplaceEntries(_ context.Context, organizationID string, season int, entries []leaderboard.Entry) error {
	rows := make(map[string]leaderboard.Entry, len(entries))
	for _, entry := range entries {
		entry.OrganizationID = organizationID
		entry.Season = season
		rows[entry.UserID] = entry
	}

	r.mu.Lock()
	r.entries[scopeKey{organizationID: organizationID, season: season}] = rows
	r.mu.Unlock()
	return nil
}

func (r *LeaderboardRepository) GetMeta(_ context.Context, organizationID string, season int) (leaderboard.Meta, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.meta[scopeKey{organizationID: organizationID, season: season}]
	return meta, ok, nil
}

func (r *LeaderboardRepository) UpsertMeta(_ context.Context, organizationID string, season int, update leaderboard.MetaUpdate) (leaderboard.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scopeKey{organizationID: organizationID, season: season}
	current, ok := r.meta[key]
	if !ok {
		current = leaderboard.Meta{OrganizationID: organizationID, Season: season}
	}
	merged := current.Merge(update)
	r.meta[key] = merged
	return merged, nil
}

// PutEntry overwrites a single entry as-is.
func (r *LeaderboardRepository) PutEntry(entry leaderboard.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scopeKey{organizationID: entry.OrganizationID, season: entry.Season}
	rows, ok := r.entries[key]
	if !ok {
		rows = make(map[string]leaderboard.Entry)
		r.entries[key] = rows
	}
	rows[entry.UserID] = entry
}
