package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mitchell28/masterleague/internal/platform/resilience"
)

func TestMemoryTier_CopiesValues(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(nil)
	ctx := context.Background()
	raw := []byte(`{"a":1}`)

	if err := tier.Set(ctx, "k", raw, time.Minute); err != nil {
		t.Fatalf("set error: %v", err)
	}
	raw[0] = 'x'

	got, ok, err := tier.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%t err=%v", ok, err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value was aliased: %s", got)
	}
}

func TestMemoryTier_DeleteIfValue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 20, 18, 0, 0, 0, time.UTC)
	tier := NewMemoryTier(NewStore(0).WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := tier.Set(ctx, "k", []byte("owner-b"), time.Minute); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if deleted, err := tier.DeleteIfValue(ctx, "k", []byte("owner-a")); err != nil || deleted {
		t.Fatalf("value mismatch must not delete, deleted=%t err=%v", deleted, err)
	}
	if _, ok, _ := tier.Get(ctx, "k"); !ok {
		t.Fatalf("expected key to survive a mismatched delete")
	}
	if deleted, err := tier.DeleteIfValue(ctx, "k", []byte("owner-b")); err != nil || !deleted {
		t.Fatalf("matching value must delete, deleted=%t err=%v", deleted, err)
	}
	if deleted, _ := tier.DeleteIfValue(ctx, "missing", []byte("owner-b")); deleted {
		t.Fatalf("missing key must report no delete")
	}

	_ = tier.Set(ctx, "expiring", []byte("owner-c"), time.Second)
	now = now.Add(time.Second)
	if deleted, _ := tier.DeleteIfValue(ctx, "expiring", []byte("owner-c")); deleted {
		t.Fatalf("expired key must read as absent")
	}
}

func TestGuardedTier_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	down := &failingTier{err: errors.New("connection refused")}
	breaker := resilience.NewCircuitBreaker(2, time.Minute, 1)
	tier := NewGuardedTier(down, breaker)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := tier.Get(ctx, "k"); err == nil {
			t.Fatalf("expected backend error")
		}
	}

	_, _, err := tier.Get(ctx, "k")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
	if down.calls != 2 {
		t.Fatalf("unexpected backend calls: got=%d want=2", down.calls)
	}
	if state := tier.State(); state != resilience.CircuitStateOpen {
		t.Fatalf("unexpected state: %s", state)
	}
}

func TestGuardedTier_CancelledContextDoesNotTrip(t *testing.T) {
	t.Parallel()

	tier := NewGuardedTier(&failingTier{err: context.Canceled}, resilience.NewCircuitBreaker(1, time.Minute, 1))
	_ = tier.Delete(context.Background(), "k")

	if state := tier.State(); state != resilience.CircuitStateClosed {
		t.Fatalf("cancellation must not trip the breaker, got %s", state)
	}
}

type failingTier struct {
	err   error
	calls int
}

func (f *failingTier) Get(context.Context, string) ([]byte, bool, error) {
	f.calls++
	return nil, false, f.err
}

func (f *failingTier) Set(context.Context, string, []byte, time.Duration) error {
	f.calls++
	return f.err
}

func (f *failingTier) SetIfAbsent(context.Context, string, []byte, time.Duration) (bool, error) {
	f.calls++
	return false, f.err
}

func (f *failingTier) Delete(context.Context, string) error {
	f.calls++
	return f.err
}

func (f *failingTier) DeleteIfValue(context.Context, string, []byte) (bool, error) {
	f.calls++
	return false, f.err
}
