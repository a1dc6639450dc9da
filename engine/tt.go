package engine

import (
	"log"
	"sync"
	"sync/atomic"
)

// DefaultCacheCeiling is the entry count at which the cache wipes itself.
const DefaultCacheCeiling = 1 << 20

type cacheKey struct {
	fingerprint string
	depth       int
	side        Side
}

type cacheEntry struct {
	Score    int
	BestMove Move
	HasMove  bool
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Entries uint64 `json:"entries"`
	Ceiling uint64 `json:"ceiling"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Stores  uint64 `json:"stores"`
	Clears  uint64 `json:"clears"`
}

// TranspositionCache memoizes (fingerprint, depth, side) -> score so that
// identical subtrees reached through different move orders are searched once.
// It is a pure accelerator: search results must be identical with the cache
// disabled.
//
// The cache is bounded by a full clear when the entry count passes the
// ceiling. That is deliberately crude; it trades an occasional cold restart
// for not having to track recency, and it makes the overflow behavior easy to
// test. Hosts must also Clear explicitly on a new game or when the evaluation
// weights change.
//
// Safe for concurrent use.
type TranspositionCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ceiling int

	hits   uint64
	misses uint64
	stores uint64
	clears uint64
}

func NewTranspositionCache(ceiling int) *TranspositionCache {
	if ceiling <= 0 {
		ceiling = DefaultCacheCeiling
	}
	return &TranspositionCache{
		entries: make(map[cacheKey]cacheEntry),
		ceiling: ceiling,
	}
}

// Get returns the cached score for the exact (fingerprint, depth, side) key.
// The best move stored alongside the score is returned when present.
func (c *TranspositionCache) Get(fingerprint string, depth int, side Side) (score int, best Move, hasMove bool, ok bool) {
	key := cacheKey{fingerprint: fingerprint, depth: depth, side: side}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	if !ok {
		return 0, Move{}, false, false
	}
	return e.Score, e.BestMove, e.HasMove, true
}

// Put stores a score under the exact key, clearing the whole cache first if
// the ceiling has been reached.
func (c *TranspositionCache) Put(fingerprint string, depth int, side Side, score int, best Move, hasMove bool) {
	key := cacheKey{fingerprint: fingerprint, depth: depth, side: side}
	c.mu.Lock()
	if len(c.entries) >= c.ceiling {
		c.entries = make(map[cacheKey]cacheEntry)
		atomic.AddUint64(&c.clears, 1)
		log.Printf("[engine:cache] ceiling %d reached, cache cleared", c.ceiling)
	}
	c.entries[key] = cacheEntry{Score: score, BestMove: best, HasMove: hasMove}
	c.mu.Unlock()
	atomic.AddUint64(&c.stores, 1)
}

// Clear drops every entry. Called by the host on new-game and on weight-table
// changes.
func (c *TranspositionCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
	atomic.AddUint64(&c.clears, 1)
}

// Len returns the current entry count.
func (c *TranspositionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ceiling returns the configured entry ceiling.
func (c *TranspositionCache) Ceiling() int { return c.ceiling }

// Stats returns a snapshot of the counters.
func (c *TranspositionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: uint64(len(c.entries)),
		Ceiling: uint64(c.ceiling),
		Hits:    atomic.LoadUint64(&c.hits),
		Misses:  atomic.LoadUint64(&c.misses),
		Stores:  atomic.LoadUint64(&c.stores),
		Clears:  atomic.LoadUint64(&c.clears),
	}
}
