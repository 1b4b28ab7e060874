package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
)

type FixtureRepository struct {
	mu       sync.RWMutex
	fixtures map[string]fixture.Fixture
	now      func() time.Time
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	byID := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		byID[item.ID] = item
	}

	return &FixtureRepository{fixtures: byID, now: time.Now}
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.fixtures[fixtureID]
	return item, ok, nil
}

func (r *FixtureRepository) ListBySeason(_ context.Context, season int) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range r.fixtures {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sortFixtures(out)
	return out, nil
}

func (r *FixtureRepository) ListFinishedSince(_ context.Context, since time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range r.fixtures {
		if item.HasResult() && !item.UpdatedAt.Before(since) {
			out = append(out, item)
		}
	}
	sortFixtures(out)
	return out, nil
}

func (r *FixtureRepository) UpdateResult(_ context.Context, fixtureID string, homeScore, awayScore *int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.fixtures[fixtureID]
	if !ok {
		return errNotFound("fixture", fixtureID)
	}
	item.HomeScore = copyInt(homeScore)
	item.AwayScore = copyInt(awayScore)
	item.Status = fixture.NormalizeStatus(status)
	item.UpdatedAt = r.now().UTC()
	r.fixtures[fixtureID] = item
	return nil
}

func sortFixtures(items []fixture.Fixture) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
