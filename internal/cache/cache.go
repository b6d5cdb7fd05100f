package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// LRUCache is a size-bounded cache whose entries also expire after a TTL.
// Expired entries are purged in the background by the underlying LRU.
type LRUCache[T any] struct {
	lru *expirable.LRU[string, T]
}

var _ Cache[string] = (*LRUCache[string])(nil)

// NewLRUCache creates a cache holding at most maxSize entries for ttl each.
// A zero ttl disables expiry.
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LRUCache[T]{lru: expirable.NewLRU[string, T](maxSize, nil, ttl)}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache[T]) Set(key string, data T) {
	c.lru.Add(key, data)
}

func (c *LRUCache[T]) Delete(key string) {
	c.lru.Remove(key)
}

func (c *LRUCache[T]) Size() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *LRUCache[T]) Purge() {
	c.lru.Purge()
}
