package cache

import (
	"errors"
	"time"
)

// LayeredCache serves reads from memory and falls back to disk, so page
// bodies fetched by earlier runs are reused
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a memory cache in front of a disk cache at diskDir
func NewLayeredCache(ttl time.Duration, diskDir string) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(ttl, 10*time.Minute),
		disk:   NewDiskCache(diskDir, ttl),
	}
}

// Get consults memory, then disk; disk hits are copied into memory
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	v, ok := c.disk.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Set(key, v, 0)
	return v, true
}

// Set writes through to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, ttl)
	return c.disk.Set(key, value, ttl)
}

// Delete removes the key from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Prune removes expired entries left on disk by earlier runs
func (c *LayeredCache) Prune() (int, error) {
	return c.disk.Prune()
}
