// Package cache memoizes compiled artifacts by a deterministic name.
//
// Entries are written once per key. A single coarse lock guards the whole
// look-up-or-compute sequence, so concurrent first requests for the same key
// run the computation once and the later callers reuse its result.
package cache

import (
	"sync"

	"github.com/maypok86/otter"
)

// DefaultCapacity bounds the number of entries when no capacity is configured.
const DefaultCapacity = 10_000

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Cache is a bounded name -> value store with compute-on-miss semantics.
type Cache[V any] struct {
	mu    sync.Mutex
	store otter.Cache[string, V]
}

// New creates a cache holding at most capacity entries. Least useful entries
// are evicted once the bound is reached.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	store, err := otter.MustBuilder[string, V](capacity).CollectStats().Build()
	if err != nil {
		// Only reachable with an invalid builder configuration.
		panic(err)
	}
	return &Cache[V]{store: store}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(key)
}

// GetOrCompute returns the cached value for key, or runs compute while holding
// the cache lock and stores its result. Errors are returned and not cached.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.store.Set(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.store.Size()
}

// Stats returns hit/miss counters and the current entry count.
func (c *Cache[V]) Stats() Stats {
	s := c.store.Stats()
	return Stats{
		Hits:    s.Hits(),
		Misses:  s.Misses(),
		Entries: c.store.Size(),
	}
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Clear()
}

// Close releases the background resources of the underlying store.
func (c *Cache[V]) Close() {
	c.store.Close()
}
