// Package lru implements cache.Cache with a fixed-size least recently used
// eviction policy.
package lru

import (
	"bytes"
	"fmt"

	golru "github.com/hashicorp/golang-lru"

	"github.com/meigma/sah/core/cache"
)

// DefaultMaxEntryBytes is the default size above which content is not cached.
const DefaultMaxEntryBytes = 4 << 20

// Cache is an in-memory LRU cache of file content.
type Cache struct {
	entries       *golru.Cache
	maxEntryBytes int
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntryBytes skips caching content larger than n bytes.
// Set to 0 to cache content of any size.
func WithMaxEntryBytes(n int) Option {
	return func(c *Cache) {
		c.maxEntryBytes = n
	}
}

// New creates a Cache holding at most size entries.
func New(size int, opts ...Option) (*Cache, error) {
	entries, err := golru.New(size)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	c := &Cache{entries: entries, maxEntryBytes: DefaultMaxEntryBytes}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get implements cache.Cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Put implements cache.Cache. It stores a copy of data.
func (c *Cache) Put(key string, data []byte) {
	if c.maxEntryBytes > 0 && len(data) > c.maxEntryBytes {
		return
	}
	c.entries.Add(key, bytes.Clone(data))
}

// Delete implements cache.Cache.
func (c *Cache) Delete(key string) {
	c.entries.Remove(key)
}

// Len implements cache.Cache.
func (c *Cache) Len() int {
	return c.entries.Len()
}

var _ cache.Cache = (*Cache)(nil)
