package explain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zcredlabs/zscore/internal/features"
)

const (
	// DefaultCacheTTL bounds how long an attribution stays servable.
	DefaultCacheTTL = time.Hour

	// DefaultCacheCap triggers an expired-entry sweep on insert.
	DefaultCacheCap = 1000
)

// Cache memoizes explanations keyed by model version and rounded
// feature values. Attribution is two orders of magnitude more
// expensive than prediction, so repeat lookups for the same applicant
// are served from here.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	cap     int
	entries map[string]cacheEntry

	hits   int64
	misses int64
}

type cacheEntry struct {
	expl      *Explanation
	expiresAt time.Time
}

// CacheStats is the monitoring view of the cache.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewCache builds an explanation cache. Zero ttl or cap select the
// defaults.
func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultCacheCap
	}
	return &Cache{
		ttl:     ttl,
		cap:     capacity,
		entries: make(map[string]cacheEntry),
	}
}

// Key derives the cache key for a model version and feature vector.
// Values are rounded to three decimals so near-identical inputs share
// an entry; the version prefix invalidates everything on retrain.
func (c *Cache) Key(version string, v features.Vector) string {
	var b strings.Builder
	b.WriteString(version)
	for _, x := range v {
		fmt.Fprintf(&b, ":%.3f", x)
	}
	return b.String()
}

// Get returns the cached explanation or nil when absent or expired.
func (c *Cache) Get(key string) *Explanation {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		c.misses++
		return nil
	}
	c.hits++
	return entry.expl
}

// Put stores an explanation. When the cache exceeds its capacity the
// insert sweeps expired entries instead of evicting live ones.
func (c *Cache) Put(key string, expl *Explanation) {
	if expl == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{expl: expl, expiresAt: time.Now().Add(c.ttl)}

	if len(c.entries) > c.cap {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
}

// Refresh drops all expired entries and reports how many were removed.
// Wired to a background ticker so idle caches do not hold stale data.
func (c *Cache) Refresh() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear empties the cache, counters included.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats snapshots entry and hit counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
