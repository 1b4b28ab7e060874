package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_PerEntryTTLAndClock(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour).WithClock(func() time.Time { return now })
	ctx := context.Background()

	store.SetWithTTL(ctx, "short", "a", time.Minute)
	store.Set(ctx, "long", "b")

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(ctx, "short"); ok {
		t.Fatalf("expected short entry to expire")
	}
	if v, ok := store.Get(ctx, "long"); !ok || v.(string) != "b" {
		t.Fatalf("expected long entry to survive, got=%v ok=%t", v, ok)
	}
}

func TestStore_SetIfAbsent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore(0).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if !store.SetIfAbsent(ctx, "lock", "first", time.Minute) {
		t.Fatalf("expected first write to succeed")
	}
	if store.SetIfAbsent(ctx, "lock", "second", time.Minute) {
		t.Fatalf("expected second write to be rejected while held")
	}

	now = now.Add(time.Minute)
	if !store.SetIfAbsent(ctx, "lock", "third", time.Minute) {
		t.Fatalf("expected write after expiry to succeed")
	}
	if v, _ := store.Get(ctx, "lock"); v.(string) != "third" {
		t.Fatalf("unexpected holder: %v", v)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()
	store.Set(ctx, "leaderboard:org-1:2025", 1)
	store.Set(ctx, "leaderboard:org-1:2024", 2)
	store.Set(ctx, "leaderboard:org-2:2025", 3)

	store.DeletePrefix(ctx, "leaderboard:org-1:")
	if got := store.Len(); got != 1 {
		t.Fatalf("unexpected entry count: got=%d want=1", got)
	}
}

func TestStore_GetOrLoad_InvalidationDuringLoadIsNotOverwritten(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)

	go func() {
		v, _ := store.GetOrLoad(ctx, "fixture:season:2025", func(context.Context) (any, error) {
			close(started)
			<-release
			return "before-result", nil
		})
		done <- v
	}()
	<-started

	store.DeletePrefix(ctx, "fixture:")
	close(release)
	if got := <-done; got != "before-result" {
		t.Fatalf("unexpected value for in-flight caller: %v", got)
	}

	if _, ok := store.Get(ctx, "fixture:season:2025"); ok {
		t.Fatalf("load started before invalidation must not be cached")
	}
	v, err := store.GetOrLoad(ctx, "fixture:season:2025", func(context.Context) (any, error) {
		return "after-result", nil
	})
	if err != nil || v != "after-result" {
		t.Fatalf("expected fresh load, got=%v err=%v", v, err)
	}
}
