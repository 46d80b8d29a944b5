package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	utilcache "k8s.io/apimachinery/pkg/util/cache"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"
)

const (
	DefaultSize = 100
	DefaultIdle = 2 * time.Minute
)

// Cache is a bounded map whose entries are evicted least-recently-used first
// once the capacity is reached, and expire after sitting idle for longer than
// the idle bound. A miss is always possible; callers re-fetch on a miss.
// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	// mu serializes the read-then-refresh in Get against Put, so a refresh
	// never overwrites a newer value.
	mu sync.Mutex

	size  int
	idle  time.Duration
	store *utilcache.LRUExpireCache
}

type Option func(*options)

type options struct {
	clock clock.PassiveClock
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.PassiveClock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New creates a cache holding at most size entries, each expiring idle after
// it was last read or written. Non-positive values fall back to the defaults.
func New[K comparable, V any](size int, idle time.Duration, opts ...Option) *Cache[K, V] {
	o := &options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(o)
	}

	if size <= 0 {
		size = DefaultSize
	}
	if idle <= 0 {
		idle = DefaultIdle
	}

	return &Cache[K, V]{
		size:  size,
		idle:  idle,
		store: utilcache.NewLRUExpireCacheWithClock(size, o.clock),
	}
}

// Get returns the cached value and refreshes its idle timer.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	value, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}

	c.store.Add(key, value, c.idle)

	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Put stores value under key, replacing any previous value.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Add(key, value, c.idle)
}

// PutAll stores every entry of values.
func (c *Cache[K, V]) PutAll(values map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		c.store.Add(k, v, c.idle)
	}
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	return len(c.store.Keys())
}

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int {
	return c.size
}

// Sweep drops every entry that has been idle for longer than the idle bound.
func (c *Cache[K, V]) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := sets.New[any](c.store.Keys()...)
	c.store.RemoveAll(func(key any) bool {
		return !live.Has(key)
	})
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.RemoveAll(func(any) bool { return true })
}

// Run sweeps the cache every interval until ctx is done.
func (c *Cache[K, V]) Run(ctx context.Context, interval time.Duration) {
	logrus.Debugf("Sweeping idle cache entries every %s", interval)
	wait.UntilWithContext(ctx, func(context.Context) {
		c.Sweep()
	}, interval)
}
