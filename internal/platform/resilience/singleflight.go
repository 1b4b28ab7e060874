package resilience

import (
	"strings"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	wg  sync.WaitGroup
	val T
	err error
}

// Do runs fn once per key among concurrent callers. The bool reports whether the
// result was shared with another caller.
func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, true
	}

	c := &call[T]{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		c.wg.Done()
		g.mu.Lock()
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// ForgetPrefix detaches in-flight calls whose key starts with prefix. Callers already
// waiting keep their result; later callers start a fresh call.
func (g *SingleFlight[T]) ForgetPrefix(prefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key := range g.calls {
		if strings.HasPrefix(key, prefix) {
			delete(g.calls, key)
		}
	}
}

// InFlight reports the number of keys currently being computed.
func (g *SingleFlight[T]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
