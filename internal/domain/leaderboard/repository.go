package leaderboard

import "context"

// Repository describes durable leaderboard storage.
type Repository interface {
	ListEntries(ctx context.Context, organizationID string, season int) ([]Entry, error)
	// ApplyEntryDelta adds delta to the user's entry, creating it when absent. username
	// fills the entry only while it has none.
	ApplyEntryDelta(ctx context.Context, organizationID string, season int, userID, username string, delta Delta) error
	// ReplaceEntries swaps the full entry set for an organization season in one write.
	ReplaceEntries(ctx context.Context, organizationID string, season int, entries []Entry) error
	GetMeta(ctx context.Context, organizationID string, season int) (Meta, bool, error)
	UpsertMeta(ctx context.Context, organizationID string, season int, update MetaUpdate) (Meta, error)
}

// Cache is the read-through store for computed leaderboards. Shared-tier failures are
// absorbed by implementations, so reads degrade to misses.
type Cache interface {
	Get(ctx context.Context, organizationID string, season int) ([]Entry, bool)
	Set(ctx context.Context, organizationID string, season int, entries []Entry) error
	GetMeta(ctx context.Context, organizationID string, season int) (Meta, bool)
	SetMeta(ctx context.Context, organizationID string, season int, update MetaUpdate) (Meta, error)
	IsFresh(ctx context.Context, organizationID string, season int) bool
	Invalidate(ctx context.Context, organizationID string, season int) error
}

// Locker serializes recalculations for one organization season.
type Locker interface {
	Acquire(ctx context.Context, organizationID string, season int) (Lease, bool, error)
	// Release frees lease only while it still owns the key.
	Release(ctx context.Context, lease Lease) error
	IsLocked(ctx context.Context, organizationID string, season int) (bool, error)
}
