package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a small typed TTL cache. Adapters use it to avoid
// re-fetching the same canonical page when an item survives across
// polling attempts within a run.
type Cache[V any] struct {
	cache *gocache.Cache
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl == 0 {
		ttl = 1 * time.Hour
	}
	return &Cache[V]{cache: gocache.New(ttl, ttl/2)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	value, found := c.cache.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	typed, ok := value.(V)
	if !ok {
		var zero V
		return zero, false
	}
	return typed, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.cache.Set(key, value, gocache.DefaultExpiration)
}

func (c *Cache[V]) Flush() {
	c.cache.Flush()
}
