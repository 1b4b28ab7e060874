package leaderboardcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/platform/cache"
)

func TestLayeredCache_SetAssignsRanksAndBackfills(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := cache.NewMemoryTier(nil)
	writer := NewLayeredCache(cache.NewStore(0), shared, Options{}, nil)

	entries := []leaderboard.Entry{
		{UserID: "u-1", Username: "ann", TotalPoints: 6},
		{UserID: "u-2", Username: "bob", TotalPoints: 2},
	}
	if err := writer.Set(ctx, "org-1", 2025, entries); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if entries[0].Rank != 0 {
		t.Fatalf("set must not mutate caller entries")
	}

	// A second process only shares the remote tier.
	local := cache.NewStore(0)
	reader := NewLayeredCache(local, shared, Options{}, nil)
	got, ok := reader.Get(ctx, "org-1", 2025)
	if !ok {
		t.Fatalf("expected shared tier hit")
	}
	if len(got) != 2 || got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("unexpected cached entries: %+v", got)
	}
	if local.Len() != 1 {
		t.Fatalf("expected local backfill, got %d local entries", local.Len())
	}
}

func TestLayeredCache_SharedFailureFallsBackToLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewLayeredCache(cache.NewStore(0), brokenTier{}, Options{}, nil)

	if err := c.Set(ctx, "org-1", 2025, []leaderboard.Entry{{UserID: "u-1"}}); err != nil {
		t.Fatalf("shared failure must not fail set: %v", err)
	}
	got, ok := c.Get(ctx, "org-1", 2025)
	if !ok || len(got) != 1 {
		t.Fatalf("expected local hit, ok=%t len=%d", ok, len(got))
	}

	if _, ok := c.Get(ctx, "org-2", 2025); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestLayeredCache_SetMetaMerges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewLayeredCache(cache.NewStore(0), cache.NewMemoryTier(nil), Options{}, nil)

	total := 38
	calculating := true
	if _, err := c.SetMeta(ctx, "org-1", 2025, leaderboard.MetaUpdate{TotalMatches: &total, IsCalculating: &calculating}); err != nil {
		t.Fatalf("set meta error: %v", err)
	}

	calculating = false
	finished := 10
	meta, err := c.SetMeta(ctx, "org-1", 2025, leaderboard.MetaUpdate{FinishedMatches: &finished, IsCalculating: &calculating})
	if err != nil {
		t.Fatalf("set meta error: %v", err)
	}
	if meta.TotalMatches != 38 || meta.FinishedMatches != 10 || meta.IsCalculating {
		t.Fatalf("unexpected merged meta: %+v", meta)
	}
	if meta.OrganizationID != "org-1" || meta.Season != 2025 {
		t.Fatalf("unexpected meta identity: %+v", meta)
	}
}

func TestLayeredCache_IsFreshBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 9, 20, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		age      time.Duration
		gameTime func(lastUpdate time.Time) *time.Time
		busy     bool
		want     bool
	}{
		{name: "4 minutes old is fresh", age: 4 * time.Minute, gameTime: after, want: true},
		{name: "6 minutes old with newer game is stale", age: 6 * time.Minute, gameTime: after, want: false},
		{name: "old without newer game is fresh", age: time.Hour, gameTime: before, want: true},
		{name: "calculating is never fresh", age: time.Minute, gameTime: before, busy: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLayeredCache(cache.NewStore(0), cache.NewMemoryTier(nil), Options{StaleAfter: 5 * time.Minute}, nil).
				WithClock(func() time.Time { return now })

			lastUpdate := now.Add(-tt.age)
			busy := tt.busy
			if _, err := c.SetMeta(ctx, "org-1", 2025, leaderboard.MetaUpdate{
				LastLeaderboardUpdate: &lastUpdate,
				LastGameTime:          tt.gameTime(lastUpdate),
				IsCalculating:         &busy,
			}); err != nil {
				t.Fatalf("set meta error: %v", err)
			}

			if got := c.IsFresh(ctx, "org-1", 2025); got != tt.want {
				t.Fatalf("unexpected freshness: got=%t want=%t", got, tt.want)
			}
		})
	}
}

func TestLayeredCache_IsFreshWithoutMeta(t *testing.T) {
	t.Parallel()

	c := NewLayeredCache(nil, nil, Options{}, nil)
	if c.IsFresh(context.Background(), "org-1", 2025) {
		t.Fatalf("missing meta must not be fresh")
	}
}

func TestLayeredCache_InvalidateClearsBothTiers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := cache.NewMemoryTier(nil)
	c := NewLayeredCache(cache.NewStore(0), shared, Options{}, nil)

	_ = c.Set(ctx, "org-1", 2025, []leaderboard.Entry{{UserID: "u-1"}})
	now := time.Now()
	_, _ = c.SetMeta(ctx, "org-1", 2025, leaderboard.MetaUpdate{LastLeaderboardUpdate: &now})

	if err := c.Invalidate(ctx, "org-1", 2025); err != nil {
		t.Fatalf("invalidate error: %v", err)
	}
	if _, ok := c.Get(ctx, "org-1", 2025); ok {
		t.Fatalf("expected entries to be cleared")
	}
	if _, ok := c.GetMeta(ctx, "org-1", 2025); ok {
		t.Fatalf("expected meta to be cleared")
	}
	if _, ok, _ := shared.Get(ctx, leaderboard.EntriesKey("org-1", 2025)); ok {
		t.Fatalf("expected shared entries to be cleared")
	}
}

func after(lastUpdate time.Time) *time.Time {
	at := lastUpdate.Add(time.Minute)
	return &at
}

func before(lastUpdate time.Time) *time.Time {
	at := lastUpdate.Add(-time.Hour)
	return &at
}

var errTierDown = errors.New("tier down")

type brokenTier struct{}

func (brokenTier) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errTierDown
}

func (brokenTier) Set(context.Context, string, []byte, time.Duration) error {
	return errTierDown
}

func (brokenTier) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errTierDown
}

func (brokenTier) Delete(context.Context, string) error {
	return errTierDown
}

func (brokenTier) DeleteIfValue(context.Context, string, []byte) (bool, error) {
	return false, errTierDown
}
