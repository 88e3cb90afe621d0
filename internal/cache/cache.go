package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces
const (
	NamespaceContent = "content" // Fetched page bodies
	NamespaceSearch  = "search"  // Provider result lists
)

// Key generates a namespaced cache key for a value (usually a URL or query)
func Key(namespace, value string) string {
	hash := sha256.Sum256([]byte(value))
	return "corroborate:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// ContentKey is the content-cache key of a URL
func ContentKey(url string) string {
	return Key(NamespaceContent, url)
}
