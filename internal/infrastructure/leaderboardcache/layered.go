package leaderboardcache

import (
	"context"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/platform/cache"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

const (
	DefaultLocalTTL   = 2 * time.Minute
	DefaultSharedTTL  = 6 * time.Hour
	DefaultStaleAfter = 5 * time.Minute
)

type Options struct {
	LocalTTL   time.Duration
	SharedTTL  time.Duration
	StaleAfter time.Duration
}

func (o Options) normalize() Options {
	if o.LocalTTL <= 0 {
		o.LocalTTL = DefaultLocalTTL
	}
	if o.SharedTTL <= 0 {
		o.SharedTTL = DefaultSharedTTL
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	return o
}

// LayeredCache keeps computed leaderboards in a short-lived in-process store backed by a
// shared tier. The local tier is the floor: shared failures are logged and read as misses.
type LayeredCache struct {
	local  *cache.Store
	shared cache.Tier
	opts   Options
	logger *logging.Logger
	now    func() time.Time
}

func NewLayeredCache(local *cache.Store, shared cache.Tier, opts Options, logger *logging.Logger) *LayeredCache {
	if local == nil {
		local = cache.NewStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LayeredCache{
		local:  local,
		shared: shared,
		opts:   opts.normalize(),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for freshness checks.
func (c *LayeredCache) WithClock(now func() time.Time) *LayeredCache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *LayeredCache) Get(ctx context.Context, organizationID string, season int) ([]leaderboard.Entry, bool) {
	key := leaderboard.EntriesKey(organizationID, season)
	if value, ok := c.local.Get(ctx, key); ok {
		if entries, ok := value.([]leaderboard.Entry); ok {
			return cloneEntries(entries), true
		}
	}

	var entries []leaderboard.Entry
	if !c.readShared(ctx, key, &entries) {
		return nil, false
	}
	c.local.SetWithTTL(ctx, key, cloneEntries(entries), c.opts.LocalTTL)
	return entries, true
}

// Set stores entries in their given order with 1-indexed ranks.
func (c *LayeredCache) Set(ctx context.Context, organizationID string, season int, entries []leaderboard.Entry) error {
	key := leaderboard.EntriesKey(organizationID, season)
	ranked := cloneEntries(entries)
	if ranked == nil {
		ranked = []leaderboard.Entry{}
	}
	leaderboard.AssignRanks(ranked)

	c.local.SetWithTTL(ctx, key, cloneEntries(ranked), c.opts.LocalTTL)
	return c.writeShared(ctx, key, ranked)
}

func (c *LayeredCache) GetMeta(ctx context.Context, organizationID string, season int) (leaderboard.Meta, bool) {
	key := leaderboard.MetaKey(organizationID, season)
	if value, ok := c.local.Get(ctx, key); ok {
		if meta, ok := value.(leaderboard.Meta); ok {
			return meta, true
		}
	}

	var meta leaderboard.Meta
	if !c.readShared(ctx, key, &meta) {
		return leaderboard.Meta{}, false
	}
	c.local.SetWithTTL(ctx, key, meta, c.opts.LocalTTL)
	return meta, true
}

// SetMeta merges update over the cached meta and writes the result to both tiers.
func (c *LayeredCache) SetMeta(ctx context.Context, organizationID string, season int, update leaderboard.MetaUpdate) (leaderboard.Meta, error) {
	current, ok := c.GetMeta(ctx, organizationID, season)
	if !ok {
		current = leaderboard.Meta{OrganizationID: organizationID, Season: season}
	}
	merged := current.Merge(update)

	key := leaderboard.MetaKey(organizationID, season)
	c.local.SetWithTTL(ctx, key, merged, c.opts.LocalTTL)
	if err := c.writeShared(ctx, key, merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// IsFresh reports whether cached results can be served without recomputation: meta must
// exist and not be mid-calculation, and either the last update is younger than the stale
// threshold or no finished game newer than the last update has been observed.
func (c *LayeredCache) IsFresh(ctx context.Context, organizationID string, season int) bool {
	meta, ok := c.GetMeta(ctx, organizationID, season)
	if !ok || meta.IsCalculating || meta.LastLeaderboardUpdate == nil {
		return false
	}

	lastUpdate := *meta.LastLeaderboardUpdate
	if c.now().Sub(lastUpdate) < c.opts.StaleAfter {
		return true
	}
	return meta.LastGameTime == nil || !meta.LastGameTime.After(lastUpdate)
}

func (c *LayeredCache) Invalidate(ctx context.Context, organizationID string, season int) error {
	keys := []string{
		leaderboard.EntriesKey(organizationID, season),
		leaderboard.MetaKey(organizationID, season),
	}
	for _, key := range keys {
		c.local.Delete(ctx, key)
		if c.shared == nil {
			continue
		}
		if err := c.shared.Delete(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "shared cache invalidate failed", "key", key, "error", err)
		}
	}
	return nil
}

func (c *LayeredCache) readShared(ctx context.Context, key string, target any) bool {
	if c.shared == nil {
		return false
	}

	raw, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "shared cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := decode(raw, target); err != nil {
		c.logger.WarnContext(ctx, "drop undecodable shared cache value", "key", key, "error", err)
		_ = c.shared.Delete(ctx, key)
		return false
	}
	return true
}

// writeShared only returns encoding failures. Backend failures are logged.
func (c *LayeredCache) writeShared(ctx context.Context, key string, value any) error {
	if c.shared == nil {
		return nil
	}

	raw, err := encode(value)
	if err != nil {
		return err
	}
	if err := c.shared.Set(ctx, key, raw, c.opts.SharedTTL); err != nil {
		c.logger.WarnContext(ctx, "shared cache write failed", "key", key, "error", err)
	}
	return nil
}

func cloneEntries(entries []leaderboard.Entry) []leaderboard.Entry {
	if entries == nil {
		return nil
	}
	out := make([]leaderboard.Entry, len(entries))
	copy(out, entries)
	return out
}
