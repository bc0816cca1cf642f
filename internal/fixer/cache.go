package fixer

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultCacheSize is the default capacity of the fix cache.
const DefaultCacheSize = 1000

// cacheEntry owns one ConsolidatedFix plus its last-access timestamp. The
// cache exclusively owns entries; callers always receive copies.
type cacheEntry struct {
	fix        ConsolidatedFix
	lastAccess time.Time
}

// Cache is a content-addressed store mapping a batch fingerprint to a
// previously computed consolidated fix, with bounded size and
// recency-based eviction. It is an optimization, never a source of truth:
// entries may be evicted at any time without notice.
//
// Keys are sha256 digests of the fingerprint string. Digest collisions
// would silently return the wrong fix; the cache does not defend against
// them.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]*cacheEntry
	maxSize       int
	hitCount      int64
	totalRequests int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Size          int     `json:"size"`
	MaxSize       int     `json:"max_size"`
	HitRate       float64 `json:"hit_rate"`
	HitCount      int64   `json:"hit_count"`
	TotalRequests int64   `json:"total_requests"`
}

// NewCache creates a cache with the given capacity. Non-positive sizes
// fall back to DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

func cacheKey(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}

// Get looks up the fix for a fingerprint. Every call counts toward
// totalRequests; a hit additionally bumps hitCount and refreshes the
// entry's access time.
func (c *Cache) Get(fingerprint string) (ConsolidatedFix, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	entry, ok := c.entries[cacheKey(fingerprint)]
	if !ok {
		return ConsolidatedFix{}, false
	}

	c.hitCount++
	entry.lastAccess = time.Now()
	return copyFix(entry.fix), true
}

// Put stores a fix under the fingerprint. Inserting a new key at capacity
// first evicts the entry with the oldest last-access time; re-inserting an
// existing key overwrites it in place and refreshes its timestamp.
func (c *Cache) Put(fingerprint string, fix ConsolidatedFix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(fingerprint)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		fix:        copyFix(fix),
		lastAccess: time.Now(),
	}
}

// evictOldest removes the entry with the oldest last-access time. Equal
// timestamps are broken by smallest key so eviction is deterministic
// within a process. Caller must hold c.mu.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		switch {
		case oldestKey == "",
			entry.lastAccess.Before(oldestTime),
			entry.lastAccess.Equal(oldestTime) && key < oldestKey:
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:          len(c.entries),
		MaxSize:       c.maxSize,
		HitRate:       float64(c.hitCount) / float64(max(c.totalRequests, 1)),
		HitCount:      c.hitCount,
		TotalRequests: c.totalRequests,
	}
}

// Reset atomically replaces the cache contents with a fresh empty store of
// the same capacity and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.hitCount = 0
	c.totalRequests = 0
}

// copyFix deep-copies a fix so callers never hold a reference into the
// cache's storage.
func copyFix(fix ConsolidatedFix) ConsolidatedFix {
	out := fix
	out.ErrorsFixed = append([]string(nil), fix.ErrorsFixed...)
	return out
}
