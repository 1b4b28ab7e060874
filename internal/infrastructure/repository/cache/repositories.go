package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	basecache "github.com/mitchell28/masterleague/internal/platform/cache"
)

type OrganizationRepository struct {
	next  organization.Repository
	cache *basecache.Store
}

func NewOrganizationRepository(next organization.Repository, cache *basecache.Store) *OrganizationRepository {
	return &OrganizationRepository{next: next, cache: cache}
}

func (r *OrganizationRepository) List(ctx context.Context) ([]organization.Organization, error) {
	v, err := r.cache.GetOrLoad(ctx, "organization:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]organization.Organization(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]organization.Organization)
	return append([]organization.Organization(nil), items...), nil
}

// FixtureRepository caches season and id lookups. Writes go through and drop every
// cached fixture read.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "fixture:id:"+fixtureID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, fixtureID)
		if err != nil {
			return nil, err
		}
		return cachedFixtureByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}

	cached, _ := v.(cachedFixtureByID)
	return cloneFixture(cached.value), cached.exists, nil
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, season int) ([]fixture.Fixture, error) {
	v, err := r.cache.GetOrLoad(ctx, "fixture:season:"+strconv.Itoa(season), func(ctx context.Context) (any, error) {
		items, err := r.next.ListBySeason(ctx, season)
		if err != nil {
			return nil, err
		}
		return cloneFixtures(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return cloneFixtures(items), nil
}

func (r *FixtureRepository) ListFinishedSince(ctx context.Context, since time.Time) ([]fixture.Fixture, error) {
	return r.next.ListFinishedSince(ctx, since)
}

func (r *FixtureRepository) UpdateResult(ctx context.Context, fixtureID string, homeScore, awayScore *int, status string) error {
	if err := r.next.UpdateResult(ctx, fixtureID, homeScore, awayScore, status); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "fixture:")
	return nil
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}

func cloneFixtures(items []fixture.Fixture) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		out = append(out, cloneFixture(item))
	}
	return out
}

func cloneFixture(item fixture.Fixture) fixture.Fixture {
	item.HomeScore = copyScore(item.HomeScore)
	item.AwayScore = copyScore(item.AwayScore)
	return item
}

func copyScore(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
