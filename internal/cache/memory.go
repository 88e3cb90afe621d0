package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory expiring caching
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		if b, ok := val.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// Set stores a value in the cache; ttl 0 uses the cache default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of unexpired entries
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// URLSet is a concurrency-safe set of URLs that never expires.
// The gatherer uses it for its dedup set and the permanent-failure blacklist.
type URLSet struct {
	items *gocache.Cache
}

// NewURLSet creates an empty set
func NewURLSet() *URLSet {
	return &URLSet{items: gocache.New(gocache.NoExpiration, 0)}
}

// Add inserts url and reports whether it was newly added
func (s *URLSet) Add(url string) bool {
	return s.items.Add(url, struct{}{}, gocache.NoExpiration) == nil
}

// Has reports whether url is in the set
func (s *URLSet) Has(url string) bool {
	_, found := s.items.Get(url)
	return found
}

// Remove deletes url from the set
func (s *URLSet) Remove(url string) {
	s.items.Delete(url)
}

// Len returns the number of URLs in the set
func (s *URLSet) Len() int {
	return s.items.ItemCount()
}
