package app

import (
	"context"
	"testing"
	"time"

	"github.com/mitchell28/masterleague/internal/config"
	"github.com/mitchell28/masterleague/internal/infrastructure/repository/memory"
	"github.com/mitchell28/masterleague/internal/platform/cache"
	"github.com/mitchell28/masterleague/internal/platform/resilience"
	"github.com/mitchell28/masterleague/internal/usecase"
)

func testConfig() config.Config {
	return config.Config{
		StorageBackend:        config.BackendMemory,
		CacheSharedBackend:    config.BackendMemory,
		CacheLocalTTL:         2 * time.Minute,
		CacheSharedTTL:        6 * time.Hour,
		LeaderboardStaleAfter: 5 * time.Minute,
		LeaderboardLockTTL:    2 * time.Minute,
		IntegrityWorkers:      2,
		SharedCacheCircuit:    resilience.DefaultCircuitBreakerConfig(),
	}
}

func TestNew_MemoryBackendsNeedNoDatabase(t *testing.T) {
	t.Parallel()

	application, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	purged, err := application.PurgeExpiredCache(context.Background())
	if err != nil || purged != 0 {
		t.Fatalf("unexpected purge result: purged=%d err=%v", purged, err)
	}
}

func TestNewWithRepositories_SeedSeasonFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	application := NewWithRepositories(testConfig(), memoryRepositories(), cache.NewMemoryTier(nil), nil)

	results, err := application.Leaderboards.RecalculateAll(ctx, memory.SeedSeason, true)
	if err != nil {
		t.Fatalf("recalculate all: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("unexpected result count: got=%d want=2", len(results))
	}
	for _, result := range results {
		if !result.Success {
			t.Fatalf("recalculation failed: %+v", result)
		}
	}

	entries, err := application.Leaderboards.GetLeaderboard(ctx, memory.OrganizationIDOffice, memory.SeedSeason)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	want := []struct {
		userID string
		points int
	}{{"user-ann", 6}, {"user-zed", 6}, {"user-bob", 4}}
	if len(entries) != len(want) {
		t.Fatalf("unexpected entry count: got=%d want=%d", len(entries), len(want))
	}
	for idx, w := range want {
		if entries[idx].UserID != w.userID || entries[idx].TotalPoints != w.points || entries[idx].Rank != idx+1 {
			t.Fatalf("unexpected entry at %d: %+v", idx, entries[idx])
		}
	}

	for _, fixtureID := range []string{"fx-2025-001", "fx-2025-002", "fx-2025-003"} {
		if _, err := application.Ledger.ScoreFixture(ctx, fixtureID); err != nil {
			t.Fatalf("score fixture %s: %v", fixtureID, err)
		}
	}

	report, err := application.Integrity.CheckIntegrity(ctx, usecase.IntegrityInput{Season: memory.SeedSeason, AutoFix: true})
	if err != nil {
		t.Fatalf("check integrity: %v", err)
	}
	if report.OrganizationsChecked != 2 {
		t.Fatalf("unexpected organizations checked: got=%d want=2", report.OrganizationsChecked)
	}

	after, err := application.Integrity.CheckIntegrity(ctx, usecase.IntegrityInput{Season: memory.SeedSeason})
	if err != nil {
		t.Fatalf("check integrity after fix: %v", err)
	}
	if len(after.Mismatches) != 0 {
		t.Fatalf("expected converged ledger, got %+v", after.Mismatches)
	}
}
