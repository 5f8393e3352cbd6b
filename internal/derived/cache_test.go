package derived

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eventuallyTimeout = 2 * time.Second
	eventuallyTick    = 5 * time.Millisecond
)

type insight struct {
	Text string
}

func TestEnsureFetchesOnce(t *testing.T) {
	cache := New[insight]("test", nil)

	var calls atomic.Int32
	fetch := func(_ context.Context, podcastID string) (*insight, error) {
		calls.Add(1)
		return &insight{Text: "for " + podcastID}, nil
	}

	v, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "for pod-1", v.Text)

	// Second access is served from the cache.
	v2, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	assert.Same(t, v, v2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnsureSingleFlight(t *testing.T) {
	cache := New[insight]("test", nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context, string) (*insight, error) {
		calls.Add(1)
		<-release
		return &insight{Text: "slow"}, nil
	}

	const n = 8
	results := make([]*insight, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			v, err := cache.Ensure(context.Background(), "pod-1", fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	// Wait until the entry is pending, then let the fetch finish.
	require.Eventually(t, func() bool {
		return cache.Pending("pod-1")
	}, eventuallyTimeout, eventuallyTick)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one fetch")
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestEnsureErrorLeavesEntryRetryable(t *testing.T) {
	cache := New[insight]("test", nil)

	var calls atomic.Int32
	boom := errors.New("backend down")
	fetch := func(context.Context, string) (*insight, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &insight{Text: "recovered"}, nil
	}

	_, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateUnset, cache.Peek("pod-1").State)

	v, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEnsureExplicitAbsent(t *testing.T) {
	cache := New[insight]("test", nil)

	var calls atomic.Int32
	fetch := func(context.Context, string) (*insight, error) {
		calls.Add(1)
		return nil, nil
	}

	v, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	assert.Nil(t, v)

	entry := cache.Peek("pod-1")
	assert.Equal(t, StateSettled, entry.State)
	assert.True(t, entry.Absent())

	// Absent is terminal: no re-fetch.
	_, err = cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSeedSkipsFetch(t *testing.T) {
	cache := New[insight]("test", nil)
	seeded := &insight{Text: "prewarmed"}
	cache.Seed("pod-1", seeded)

	fetch := func(context.Context, string) (*insight, error) {
		t.Fatal("fetcher must not run for a seeded entry")
		return nil, nil
	}

	v, err := cache.Ensure(context.Background(), "pod-1", fetch)
	require.NoError(t, err)
	assert.Same(t, seeded, v)
}

func TestSeedNeverOverwritesSettled(t *testing.T) {
	cache := New[insight]("test", nil)
	first := &insight{Text: "first"}
	cache.Seed("pod-1", first)
	cache.Seed("pod-1", &insight{Text: "second"})

	assert.Same(t, first, cache.Peek("pod-1").Value)
}

func TestSettledCount(t *testing.T) {
	cache := New[insight]("test", nil)
	assert.Equal(t, 0, cache.SettledCount())

	cache.Seed("pod-1", &insight{Text: "a"})
	cache.Seed("pod-2", nil) // explicit absent still counts as settled
	assert.Equal(t, 2, cache.SettledCount())

	_, err := cache.Ensure(context.Background(), "pod-3", func(context.Context, string) (*insight, error) {
		return &insight{Text: "c"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cache.SettledCount())
}

func TestPeekUnknownKey(t *testing.T) {
	cache := New[insight]("test", nil)
	entry := cache.Peek("nope")
	assert.Equal(t, StateUnset, entry.State)
	assert.Nil(t, entry.Value)
	assert.False(t, entry.Absent())
}

func TestEntryStateString(t *testing.T) {
	assert.Equal(t, "unset", StateUnset.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "settled", StateSettled.String())
}
