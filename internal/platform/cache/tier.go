package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchell28/masterleague/internal/platform/resilience"
)

// Tier is a byte-oriented key/value backend with per-write expiry.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent writes only when the key is missing or expired and reports whether it wrote.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// DeleteIfValue deletes key only while it holds exactly value and reports whether it did.
	DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error)
}

// MemoryTier adapts Store to Tier.
type MemoryTier struct {
	store *Store
}

func NewMemoryTier(store *Store) *MemoryTier {
	if store == nil {
		store = NewStore(0)
	}
	return &MemoryTier{store: store}
}

func (t *MemoryTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := t.store.Get(ctx, key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached type %T for key %s", value, key)
	}
	return cloneBytes(raw), true, nil
}

func (t *MemoryTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	t.store.SetWithTTL(ctx, key, cloneBytes(value), ttl)
	return nil
}

func (t *MemoryTier) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return t.store.SetIfAbsent(ctx, key, cloneBytes(value), ttl), nil
}

func (t *MemoryTier) Delete(ctx context.Context, key string) error {
	t.store.Delete(ctx, key)
	return nil
}

func (t *MemoryTier) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	return t.store.DeleteIf(ctx, key, func(current any) bool {
		raw, ok := current.([]byte)
		return ok && bytes.Equal(raw, value)
	}), nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

// GuardedTier wraps a remote tier with a circuit breaker so an unreachable backend
// fails fast instead of stalling every read.
type GuardedTier struct {
	next    Tier
	breaker *resilience.CircuitBreaker
}

func NewGuardedTier(next Tier, breaker *resilience.CircuitBreaker) *GuardedTier {
	if breaker == nil {
		breaker = resilience.NewCircuitBreakerFromConfig(resilience.DefaultCircuitBreakerConfig())
	}
	return &GuardedTier{next: next, breaker: breaker}
}

func (t *GuardedTier) State() resilience.CircuitState {
	return t.breaker.State()
}

func (t *GuardedTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := t.breaker.Execute(func() error {
		var err error
		value, ok, err = t.next.Get(ctx, key)
		return err
	}, isCallerError)
	if err != nil {
		return nil, false, fmt.Errorf("shared cache get %s: %w", key, err)
	}
	return value, ok, nil
}

func (t *GuardedTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := t.breaker.Execute(func() error {
		return t.next.Set(ctx, key, value, ttl)
	}, isCallerError)
	if err != nil {
		return fmt.Errorf("shared cache set %s: %w", key, err)
	}
	return nil
}

func (t *GuardedTier) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var written bool
	err := t.breaker.Execute(func() error {
		var err error
		written, err = t.next.SetIfAbsent(ctx, key, value, ttl)
		return err
	}, isCallerError)
	if err != nil {
		return false, fmt.Errorf("shared cache set-if-absent %s: %w", key, err)
	}
	return written, nil
}

func (t *GuardedTier) Delete(ctx context.Context, key string) error {
	err := t.breaker.Execute(func() error {
		return t.next.Delete(ctx, key)
	}, isCallerError)
	if err != nil {
		return fmt.Errorf("shared cache delete %s: %w", key, err)
	}
	return nil
}

func (t *GuardedTier) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	var deleted bool
	err := t.breaker.Execute(func() error {
		var err error
		deleted, err = t.next.DeleteIfValue(ctx, key, value)
		return err
	}, isCallerError)
	if err != nil {
		return false, fmt.Errorf("shared cache delete-if-value %s: %w", key, err)
	}
	return deleted, nil
}

// Cancelled callers say nothing about backend health.
func isCallerError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
