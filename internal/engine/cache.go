package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// CacheConfig controls the memoized result table. A TTL of zero or less keeps
// entries forever; a MaxSize of zero or less leaves the table unbounded.
type CacheConfig struct {
	TTL             time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// resultCache maps request fingerprints to ranked match lists. Writes replace
// the whole value under the lock, so readers always observe a complete list,
// never a partially written one.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cacheEntry struct {
	matches   []Match
	createdAt time.Time
	expiresAt time.Time // zero when entries never expire
}

func newResultCache(cfg CacheConfig) *resultCache {
	c := &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
	}
	if cfg.TTL > 0 && cfg.CleanupInterval > 0 {
		go c.startCleanup(cfg.CleanupInterval)
	}
	return c
}

// Get returns the ranked list cached for the fingerprint. Expired entries
// count as misses; the cleanup ticker collects them.
func (c *resultCache) Get(key string) ([]Match, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.matches, true
}

// Put stores the ranked list for the fingerprint, evicting expired entries
// and then the oldest entry when the cache is full.
func (c *resultCache) Put(key string, matches []Match) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.removeExpiredLocked()
		if len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	now := time.Now()
	entry := cacheEntry{matches: matches, createdAt: now}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = entry
}

// Stats snapshots the counters.
func (c *resultCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *resultCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		c.removeExpiredLocked()
		c.mu.Unlock()
	}
}

func (c *resultCache) removeExpiredLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
	}
}

func (c *resultCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions.Add(1)
	}
}
