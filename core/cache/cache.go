package cache

import "fmt"

// Cache stores file content by key.
//
// Values returned by Get are shared and must be treated as read-only.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns cached content for key.
	Get(key string) ([]byte, bool)

	// Put stores data under key. The cache may decline to store it.
	Put(key string, data []byte)

	// Delete removes the entry for key. Missing keys are a no-op.
	Delete(key string)

	// Len returns the number of cached entries.
	Len() int
}

// Key returns the cache key for a byte range of a data source.
func Key(sourceID string, offset, length uint64) string {
	return fmt.Sprintf("%s@%d+%d", sourceID, offset, length)
}
