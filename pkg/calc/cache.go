package calc

import (
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

// DefaultCacheSize bounds the number of memoized expressions.
const DefaultCacheSize = 1024

type cacheEntry struct {
	input   string
	outcome *Outcome
	err     error
}

// Cache memoizes Run. Evaluation is deterministic, so both successes and
// rejections are cached. When full, the cache is emptied wholesale.
type Cache struct {
	mu      sync.Mutex
	size    int
	entries map[uint64]cacheEntry
	hits    int64
	misses  int64
}

// NewCache creates a cache holding at most size expressions.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{size: size, entries: make(map[uint64]cacheEntry, size)}
}

// Run returns the memoized result for input, computing it on a miss. The
// second return value reports whether the result came from the cache.
func (c *Cache) Run(input string) (*Outcome, bool, error) {
	key := fnv1a.HashString64(input)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.input == input {
		c.hits++
		c.mu.Unlock()
		return e.outcome, true, e.err
	}
	c.misses++
	c.mu.Unlock()

	outcome, err := Run(input)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.size {
		c.entries = make(map[uint64]cacheEntry, c.size)
	}
	c.entries[key] = cacheEntry{input: input, outcome: outcome, err: err}
	return outcome, false, err
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
