package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mitchell28/masterleague/internal/platform/resilience"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Store is an in-process TTL map. A zero TTL keeps entries until deleted.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  resilience.SingleFlight[any]
	now     func() time.Time

	// generation moves on every delete so loads started earlier do not write back.
	generation uint64
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expired(now) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(ctx context.Context, key string, value any) {
	s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *Store) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		expiresAt: s.expiry(ttl),
	}
	s.mu.Unlock()
}

// SetIfAbsent stores value only when key is missing or expired.
func (s *Store) SetIfAbsent(_ context.Context, key string, value any, ttl time.Duration) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.entries[key]; ok && !current.expired(s.now()) {
		return false
	}
	s.entries[key] = entry{
		value:     value,
		expiresAt: s.expiry(ttl),
	}
	return true
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.generation++
	s.mu.Unlock()
}

// DeleteIf removes key only while its live value satisfies match.
func (s *Store) DeleteIf(_ context.Context, key string, match func(value any) bool) bool {
	if key == "" || match == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[key]
	if !ok || current.expired(s.now()) || !match(current.value) {
		return false
	}
	delete(s.entries, key)
	s.generation++
	return true
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.generation++
	s.mu.Unlock()
	s.flight.ForgetPrefix(prefix)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		s.mu.RLock()
		generation := s.generation
		s.mu.RUnlock()

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.mu.Lock()
		if s.generation == generation {
			s.entries[key] = entry{value: loaded, expiresAt: s.expiry(s.ttl)}
		}
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
