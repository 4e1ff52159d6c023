// Package cache provides an in-memory LRU cache of evaluation outcomes.
//
// Evaluation is a pure function of the expression text, so both values and
// failures can be cached indefinitely. Keys are 64-bit xxhash digests; the
// expression is kept alongside each entry so a digest collision is treated as
// a miss rather than returning another expression's result.
package cache

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when a non-positive size is requested
const DefaultSize = 1024

// Entry is a cached evaluation outcome
type Entry struct {
	Expression string
	Value      float64
	Consumed   int
	Trailing   string
	Err        error
}

// Cache provides LRU caching of evaluation outcomes by expression
type Cache struct {
	cache *lru.Cache[uint64, *Entry]
	size  int
}

// New creates a new cache with LRU eviction
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[uint64, *Entry](size)
	if err != nil {
		// Should never happen with positive size, but fallback to default
		size = DefaultSize
		cache, _ = lru.New[uint64, *Entry](DefaultSize)
	}
	return &Cache{cache: cache, size: size}
}

// Key computes the cache key for an expression
func Key(expr string) uint64 {
	return xxhash.Sum64String(expr)
}

// Get retrieves a copy of the cached outcome for expr
func (c *Cache) Get(expr string) (Entry, bool) {
	entry, ok := c.cache.Get(Key(expr))
	if !ok || entry.Expression != expr {
		return Entry{}, false
	}
	return *entry, true
}

// Set stores the outcome for expr
func (c *Cache) Set(entry Entry) {
	stored := entry
	c.cache.Add(Key(entry.Expression), &stored)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Size returns the capacity of the cache
func (c *Cache) Size() int {
	return c.size
}

// Purge empties the cache
func (c *Cache) Purge() {
	c.cache.Purge()
}
