// Package derived implements the memoizing fetch-on-miss caches that hold
// per-podcast derived data (fit analysis, audience demographics) for one
// dashboard session.
//
// Each cache entry is tri-state: unset (never requested), pending (exactly
// one fetch in flight), or settled (a value or the explicit-absent sentinel).
// Settled entries are terminal for the session and are never re-fetched.
package derived

import (
	"context"
	"log/slog"
	"sync"
)

// EntryState describes the lifecycle position of one cache entry.
type EntryState int

// Entry states.
const (
	StateUnset EntryState = iota
	StatePending
	StateSettled
)

// String returns the wire name of the state.
func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	default:
		return "unset"
	}
}

// Entry is a read-only snapshot of one cache slot. A settled entry with a nil
// Value means the backend was asked and had nothing (explicit-absent), which
// is distinct from an unset entry that was never asked.
type Entry[T any] struct {
	State EntryState
	Value *T
}

// Absent reports whether the entry settled with no data available.
func (e Entry[T]) Absent() bool {
	return e.State == StateSettled && e.Value == nil
}

// Fetcher retrieves the derived value for one podcast. Returning (nil, nil)
// means the backend was reached and has no data: the entry settles as
// explicit-absent. Returning an error leaves the entry unset and retryable.
type Fetcher[T any] func(ctx context.Context, podcastID string) (*T, error)

type flight[T any] struct {
	done  chan struct{}
	value *T
	err   error
}

type slot[T any] struct {
	state  EntryState
	value  *T
	flight *flight[T] // non-nil only while pending
}

// Cache is a session-scoped, single-flight memoizing cache keyed by podcast
// ID. It is created by the session orchestrator and discarded with it; there
// is deliberately no module-level instance.
type Cache[T any] struct {
	mu     sync.Mutex
	slots  map[string]*slot[T]
	name   string
	logger *slog.Logger
}

// New creates an empty cache. The name only labels log lines.
func New[T any](name string, logger *slog.Logger) *Cache[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache[T]{
		slots:  make(map[string]*slot[T]),
		name:   name,
		logger: logger,
	}
}

// Peek returns the current entry for a podcast without side effects.
func (c *Cache[T]) Peek(podcastID string) Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[podcastID]
	if !ok {
		return Entry[T]{State: StateUnset}
	}
	return Entry[T]{State: s.state, Value: s.value}
}

// Pending reports whether a fetch for this podcast is currently in flight.
// Loading indicators must key off this per-podcast state, never a shared flag.
func (c *Cache[T]) Pending(podcastID string) bool {
	return c.Peek(podcastID).State == StatePending
}

// Ensure returns the derived value for a podcast, fetching it at most once.
//
// A settled entry returns immediately without invoking the fetcher. If a
// fetch is already in flight for this key, the caller awaits that same fetch
// rather than starting a duplicate, and observes its outcome. Otherwise the
// entry transitions to pending, the fetcher runs, and the entry settles with
// the value or with explicit-absent. A fetcher error resets the entry to
// unset so a later access may retry.
func (c *Cache[T]) Ensure(ctx context.Context, podcastID string, fetch Fetcher[T]) (*T, error) {
	c.mu.Lock()
	s, ok := c.slots[podcastID]
	if !ok {
		s = &slot[T]{}
		c.slots[podcastID] = s
	}

	switch s.state {
	case StateSettled:
		v := s.value
		c.mu.Unlock()
		return v, nil

	case StatePending:
		f := s.flight
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Unset: this caller owns the fetch.
	f := &flight[T]{done: make(chan struct{})}
	s.state = StatePending
	s.flight = f
	c.mu.Unlock()

	value, err := fetch(ctx, podcastID)

	c.mu.Lock()
	if err != nil {
		s.state = StateUnset
		c.logger.Warn("derived fetch failed, entry left retryable",
			"cache", c.name, "podcast_id", podcastID, "error", err)
	} else {
		s.state = StateSettled
		s.value = value
	}
	s.flight = nil
	f.value = value
	f.err = err
	c.mu.Unlock()

	close(f.done)
	return value, err
}

// Seed pre-warms an entry directly into the settled state, skipping the
// fetch. Used for podcasts that arrive from the catalog already carrying
// derived data. Entries that are already pending or settled are left alone:
// a settled entry is never overwritten.
func (c *Cache[T]) Seed(podcastID string, value *T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.slots[podcastID]; ok && s.state != StateUnset {
		return
	}
	c.slots[podcastID] = &slot[T]{state: StateSettled, value: value}
}

// SettledCount returns how many entries have settled. Together with the
// catalog size this drives the "insights ready: X/Y" progress counter, and it
// reflects seeded entries immediately.
func (c *Cache[T]) SettledCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.slots {
		if s.state == StateSettled {
			n++
		}
	}
	return n
}
