package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCache_ReadThrough(t *testing.T) {
	t.Parallel()

	c := New[int]()
	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, int32(1), calls.Load())
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	t.Parallel()

	c := New[int]()
	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	_, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	c.Invalidate("k")
	_, ok := c.lookup("k")
	require.False(t, ok)

	v, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	t.Parallel()

	c := New[string]()
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", load)
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		require.Equal(t, "value", v)
	}
}

func TestCache_InvalidateDuringLoadDoesNotStore(t *testing.T) {
	t.Parallel()

	c := New[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		close(started)
		<-release
		return 7, nil
	}

	done := make(chan int)
	go func() {
		v, _ := c.Get(context.Background(), "k", load)
		done <- v
	}()

	<-started
	c.Invalidate("k")
	close(release)
	require.Equal(t, 7, <-done)

	_, ok := c.lookup("k")
	require.False(t, ok)
}

func TestCache_LoadErrorIsNotCached(t *testing.T) {
	t.Parallel()

	c := New[int]()
	boom := errors.New("boom")
	_, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	v, err := c.Get(context.Background(), "k", func(context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestCache_TTLExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := New[int](WithTTL(time.Minute), WithClock(clock))
	var calls atomic.Int32
	load := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	_, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(30 * time.Second)
	mu.Unlock()
	v, err := c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()
	v, err = c.Get(context.Background(), "k", load)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCache_CanceledCallerReturnsContextError(t *testing.T) {
	t.Parallel()

	c := New[int]()
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "k", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	close(release)
	require.ErrorIs(t, err, context.Canceled)

	require.Eventually(t, func() bool {
		_, ok := c.lookup("k")
		return ok
	}, time.Second, time.Millisecond)
}

func TestCache_CanceledLeaderDoesNotFailWaiters(t *testing.T) {
	t.Parallel()

	c := New[int]()
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value
	load := func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			loadErr.Store(ctx.Err())
			return 0, ctx.Err()
		}
		return 42, nil
	}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Get(leaderCtx, "projects", load)
		leaderErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		v, err := c.Get(context.Background(), "projects", load)
		waiter <- result{v, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	got := <-waiter
	require.NoError(t, got.err)
	require.Equal(t, 42, got.v)
	require.Nil(t, loadErr.Load())

	v, ok := c.lookup("projects")
	require.True(t, ok)
	require.Equal(t, 42, v)
}
