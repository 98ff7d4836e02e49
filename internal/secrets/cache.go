package secrets

import (
	"sync"
	"time"
)

// ttlCache keeps vault values for a fixed time so a config reload does not
// hit Key Vault once per secret
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *ttlCache) get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || c.now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

func (c *ttlCache) put(name, value string) {
	c.mu.Lock()
	c.entries[name] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
