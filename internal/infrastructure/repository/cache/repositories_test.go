package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	basecache "github.com/mitchell28/masterleague/internal/platform/cache"
)

func TestOrganizationRepository_ListIsCached(t *testing.T) {
	t.Parallel()

	next := &countingOrganizationRepository{items: []organization.Organization{{ID: "org-1"}}}
	repo := NewOrganizationRepository(next, basecache.NewStore(time.Minute))

	for i := 0; i < 3; i++ {
		items, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("list organizations: %v", err)
		}
		if len(items) != 1 || items[0].ID != "org-1" {
			t.Fatalf("unexpected organizations: %+v", items)
		}
	}
	if next.calls != 1 {
		t.Fatalf("unexpected upstream calls: got=%d want=1", next.calls)
	}
}

func TestOrganizationRepository_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	next := &countingOrganizationRepository{err: errors.New("db down")}
	repo := NewOrganizationRepository(next, basecache.NewStore(time.Minute))

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected upstream error")
	}
	next.err = nil
	next.items = []organization.Organization{{ID: "org-2"}}

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list organizations: %v", err)
	}
	if len(items) != 1 || items[0].ID != "org-2" {
		t.Fatalf("unexpected organizations: %+v", items)
	}
}

func TestFixtureRepository_UpdateResultDropsCachedReads(t *testing.T) {
	t.Parallel()

	home, away := 1, 0
	next := &stubFixtureRepository{items: map[string]fixture.Fixture{
		"fx-1": {ID: "fx-1", Season: 2025, Status: fixture.StatusInPlay},
	}}
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))
	ctx := context.Background()

	if _, _, err := repo.GetByID(ctx, "fx-1"); err != nil {
		t.Fatalf("get fixture: %v", err)
	}
	if _, _, err := repo.GetByID(ctx, "fx-1"); err != nil {
		t.Fatalf("get fixture: %v", err)
	}
	if next.getCalls != 1 {
		t.Fatalf("unexpected upstream calls: got=%d want=1", next.getCalls)
	}

	if err := repo.UpdateResult(ctx, "fx-1", &home, &away, fixture.StatusFinished); err != nil {
		t.Fatalf("update result: %v", err)
	}

	item, exists, err := repo.GetByID(ctx, "fx-1")
	if err != nil || !exists {
		t.Fatalf("get fixture after update: exists=%t err=%v", exists, err)
	}
	if !item.HasResult() {
		t.Fatalf("expected refreshed fixture with result, got %+v", item)
	}
}

type countingOrganizationRepository struct {
	items []organization.Organization
	err   error
	calls int
}

func (r *countingOrganizationRepository) List(context.Context) ([]organization.Organization, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.items, nil
}

type stubFixtureRepository struct {
	items    map[string]fixture.Fixture
	getCalls int
}

func (r *stubFixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.getCalls++
	item, ok := r.items[fixtureID]
	return item, ok, nil
}

func (r *stubFixtureRepository) ListBySeason(context.Context, int) ([]fixture.Fixture, error) {
	return nil, nil
}

func (r *stubFixtureRepository) ListFinishedSince(context.Context, time.Time) ([]fixture.Fixture, error) {
	return nil, nil
}

func (r *stubFixtureRepository) UpdateResult(_ context.Context, fixtureID string, homeScore, awayScore *int, status string) error {
	item := r.items[fixtureID]
	item.HomeScore = homeScore
	item.AwayScore = awayScore
	item.Status = status
	r.items[fixtureID] = item
	return nil
}
