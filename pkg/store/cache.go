package store

import (
	"sync"

	"github.com/cuemby/mumpsdb/pkg/mvalue"
)

// queryCache is the store-level cache keyed by the fully-qualified
// "globalName path-key" encoding. It lets a repeated GET short-circuit
// before even reaching the global's root. It is the only memoization layer
// in the store — tree.Node does not cache, so there is exactly one cache to
// keep coherent. It carries its own mutex rather than relying on the
// store's RWMutex: GlobalStore.Get only takes the store's read lock, and
// concurrent readers populating this cache at the same time would race on
// its map and slice without independent locking. Eviction is a simple
// bounded cleanup — when the cache grows past maxSize, the oldest ~20% (by
// insertion order) is dropped.
type queryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*mvalue.Value
	order   []string
}

func newQueryCache(maxSize int) *queryCache {
	return &queryCache{
		maxSize: maxSize,
		entries: make(map[string]*mvalue.Value),
	}
}

func (c *queryCache) get(key string) (*mvalue.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *queryCache) put(key string, v *mvalue.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = v
	if c.maxSize > 0 && len(c.entries) > c.maxSize {
		c.evictOldest()
	}
}

func (c *queryCache) evictOldest() {
	evict := len(c.entries) / 5
	if evict == 0 {
		evict = 1
	}
	i := 0
	for i < evict && i < len(c.order) {
		delete(c.entries, c.order[i])
		i++
	}
	c.order = c.order[i:]
}

func (c *queryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *queryCache) invalidateGlobal(globalName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := globalName + " "
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

func (c *queryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(globalName string, path mvalue.Path) string {
	return globalName + " " + path.Key()
}
