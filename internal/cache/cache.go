// Package cache implements a read-through query cache keyed by query identity
// with explicit invalidation. Concurrent misses for one key share a single load.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/project-dashboard/internal/metrics"
)

// Loader resolves the value for a key on a miss.
type Loader[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value    V
	loadedAt time.Time
}

// Cache maps a query key to its last resolved value.
type Cache[V any] struct {
	mu          sync.Mutex
	entries     map[string]entry[V]
	generations map[string]uint64
	group       singleflight.Group
	ttl         time.Duration
	now         func() time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL marks entries stale after d. Zero keeps entries until invalidated.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New constructs an empty Cache.
func New[V any](opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		entries:     make(map[string]entry[V]),
		generations: make(map[string]uint64),
		ttl:         o.ttl,
		now:         o.now,
	}
}

// Get returns the cached value for key, calling load on a miss. At most one
// load per key is in flight; concurrent callers wait for and share its result.
// The load keeps the first caller's values but not its cancellation, so one
// caller giving up never fails the others. A load that completes after
// Invalidate(key) is returned to its callers but not stored.
func (c *Cache[V]) Get(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, ok := c.lookup(key); ok {
		metrics.ObserveCacheHit(key)
		return v, nil
	}
	metrics.ObserveCacheMiss(key)

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		gen := c.generation(key)
		v, err := load(loadCtx)
		if err != nil {
			metrics.ObserveCacheLoadError(key)
			return nil, fmt.Errorf("load %q: %w", key, err)
		}
		c.store(key, gen, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, fmt.Errorf("wait for %q: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

// Invalidate drops key and fences off any load currently in flight for it.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.generations[key]++
	c.group.Forget(key)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.generations[key]
	if !ok {
		c.generations[key] = 0
	}
	return gen
}

func (c *Cache[V]) store(key string, gen uint64, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != gen {
		return
	}
	c.entries[key] = entry[V]{value: v, loadedAt: c.now()}
}
