package leaderboardcache

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/platform/cache"
	"github.com/mitchell28/masterleague/internal/platform/id"
)

const DefaultLockTTL = 2 * time.Minute

// ErrLeaseNotHeld is returned by Release when the lease expired and another owner took the key.
var ErrLeaseNotHeld = crerr.New("recalculation lease held by another owner")

// RecalculationLock is a TTL lease on the shared tier. A crashed holder frees the key once
// the TTL elapses.
type RecalculationLock struct {
	tier   cache.Tier
	ttl    time.Duration
	tokens id.Generator
	now    func() time.Time
}

func NewRecalculationLock(tier cache.Tier, ttl time.Duration, tokens id.Generator) *RecalculationLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if tokens == nil {
		tokens = id.NewRandomGenerator()
	}
	return &RecalculationLock{
		tier:   tier,
		ttl:    ttl,
		tokens: tokens,
		now:    time.Now,
	}
}

func (l *RecalculationLock) WithClock(now func() time.Time) *RecalculationLock {
	if now != nil {
		l.now = now
	}
	return l
}

func (l *RecalculationLock) Acquire(ctx context.Context, organizationID string, season int) (leaderboard.Lease, bool, error) {
	token, err := l.tokens.NewID()
	if err != nil {
		return leaderboard.Lease{}, false, crerr.Wrap(err, "generate lock token")
	}

	lease := leaderboard.Lease{
		Key:        leaderboard.LockKey(organizationID, season),
		Token:      token,
		AcquiredAt: l.now().UTC(),
		TTL:        l.ttl,
	}
	raw, err := encode(lease)
	if err != nil {
		return leaderboard.Lease{}, false, err
	}

	acquired, err := l.tier.SetIfAbsent(ctx, lease.Key, raw, l.ttl)
	if err != nil {
		return leaderboard.Lease{}, false, crerr.Wrapf(err, "acquire lock %s", lease.Key)
	}
	if !acquired {
		return leaderboard.Lease{}, false, nil
	}
	return lease, true, nil
}

// Release frees the lease only while it still owns the key. Releasing twice is a no-op.
func (l *RecalculationLock) Release(ctx context.Context, lease leaderboard.Lease) error {
	if lease.Key == "" {
		return nil
	}

	holder, raw, ok, err := l.holder(ctx, lease.Key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if holder.Token != lease.Token {
		return crerr.Wrapf(ErrLeaseNotHeld, "release lock %s", lease.Key)
	}

	// A key that expired or changed hands since the read is left alone.
	if _, err := l.tier.DeleteIfValue(ctx, lease.Key, raw); err != nil {
		return crerr.Wrapf(err, "release lock %s", lease.Key)
	}
	return nil
}

func (l *RecalculationLock) IsLocked(ctx context.Context, organizationID string, season int) (bool, error) {
	key := leaderboard.LockKey(organizationID, season)
	_, ok, err := l.tier.Get(ctx, key)
	if err != nil {
		return false, crerr.Wrapf(err, "read lock %s", key)
	}
	return ok, nil
}

// Holder returns the current lease, if any.
func (l *RecalculationLock) Holder(ctx context.Context, organizationID string, season int) (leaderboard.Lease, bool, error) {
	lease, _, ok, err := l.holder(ctx, leaderboard.LockKey(organizationID, season))
	return lease, ok, err
}

func (l *RecalculationLock) holder(ctx context.Context, key string) (leaderboard.Lease, []byte, bool, error) {
	raw, ok, err := l.tier.Get(ctx, key)
	if err != nil {
		return leaderboard.Lease{}, nil, false, crerr.Wrapf(err, "read lock %s", key)
	}
	if !ok {
		return leaderboard.Lease{}, nil, false, nil
	}

	var lease leaderboard.Lease
	if err := decode(raw, &lease); err != nil {
		return leaderboard.Lease{}, nil, false, err
	}
	return lease, raw, true, nil
}
