package promptcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetFetchesOnFirstCall(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "rendered prompt", nil
	}, time.Hour, nil, nil)

	require.Equal(t, "rendered prompt", c.Get(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetServesFreshValueWithoutRefetch(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}, time.Hour, nil, nil)

	c.Get(context.Background())
	c.Get(context.Background())
	c.Get(context.Background())

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRefetchesAfterTTLExpires(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "first", nil
		}
		return "second", nil
	}, 10*time.Millisecond, nil, nil)

	require.Equal(t, "first", c.Get(context.Background()))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, "second", c.Get(context.Background()))
}

func TestGetReturnsFallbackOnFetchFailureWithNoPriorValue(t *testing.T) {
	c := New(func(ctx context.Context) (string, error) {
		return "", errors.New("unreachable")
	}, time.Hour, nil, nil)

	require.Equal(t, FallbackPrompt, c.Get(context.Background()))
}

func TestGetDoesNotCacheFallback(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("unreachable")
	}, time.Hour, nil, nil)

	c.Get(context.Background())
	c.Get(context.Background())

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetServesStaleCachedValueOnSubsequentFetchFailure(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "cached", nil
		}
		return "", errors.New("unreachable")
	}, 5*time.Millisecond, nil, nil)

	require.Equal(t, "cached", c.Get(context.Background()))
	time.Sleep(10 * time.Millisecond)
	// Second call's fetch fails; stale "cached" is discarded per single-slot
	// contract (only fresh values are served), so fallback is returned.
	require.Equal(t, FallbackPrompt, c.Get(context.Background()))
}

func TestConcurrentGetsDeduplicateInFlightFetch(t *testing.T) {
	var calls int32
	block := make(chan struct{})
	c := New(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-block
		return "v", nil
	}, time.Hour, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var calls int32
	c := New(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}, time.Hour, nil, nil)

	c.Get(context.Background())
	c.Invalidate()
	c.Get(context.Background())

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
