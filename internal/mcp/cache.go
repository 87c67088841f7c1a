package mcp

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// defaultCacheTTL is how long a successful tool payload stays fresh.
const defaultCacheTTL = 300 * time.Second

// cacheKey derives a deterministic key from the tool name and its
// argument object. encoding/json emits map keys in sorted order, so
// two semantically identical calls produce the same key regardless of
// argument construction order.
func cacheKey(tool string, args map[string]any) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode cache key args: %w", err)
	}
	return tool + ":" + string(encoded), nil
}

type cacheEntry struct {
	data      any
	expiresAt time.Time
}

// toolCache maps (tool name, canonical args) to successful payloads
// with a fixed TTL. Expiry is lazy: stale entries are treated as
// absent and removed on the read that finds them.
type toolCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	writes  int
}

func newToolCache(ttl time.Duration) *toolCache {
	return &toolCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *toolCache) Get(key string) (any, bool) {
	now := time.Now()
	c.mu.RLock()
	entry, ok := c.entries[key]
	if ok && !now.After(entry.expiresAt) {
		c.mu.RUnlock()
		return entry.data, true
	}
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	// Expired — remove lazily
	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under write lock; return fresh entry if present
	if e, exists := c.entries[key]; exists {
		if time.Now().After(e.expiresAt) {
			delete(c.entries, key)
			return nil, false
		}
		return e.data, true
	}
	return nil, false
}

func (c *toolCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	// Clean up expired entries periodically (every 100 writes)
	if c.writes%100 == 0 {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len reports the number of stored entries, expired or not; it is
// surfaced by the health tool.
func (c *toolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
