package venue

import (
	"sync"
	"time"

	"foresight/internal/market"
)

// Cache provides a TTL-based in-memory cache for fetched market catalogs.
type Cache struct {
	mu      sync.RWMutex
	markets map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	data      market.Market
	fetchedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		markets: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *Cache) key(m market.Market) string {
	return string(m.Platform) + ":" + m.ID
}

func (c *Cache) Set(m market.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.markets[c.key(m)] = cacheEntry{data: m, fetchedAt: time.Now()}
}

func (c *Cache) SetAll(markets []market.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, m := range markets {
		c.markets[c.key(m)] = cacheEntry{data: m, fetchedAt: now}
	}
}

// Get returns a cached market by platform-qualified key.
func (c *Cache) Get(p market.Platform, id string) (market.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.markets[string(p)+":"+id]
	if !ok || time.Since(entry.fetchedAt) > c.ttl {
		return market.Market{}, false
	}
	return entry.data, true
}

// All returns all non-expired entries.
func (c *Cache) All() []market.Market {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	result := make([]market.Market, 0, len(c.markets))
	for _, entry := range c.markets {
		if now.Sub(entry.fetchedAt) <= c.ttl {
			result = append(result, entry.data)
		}
	}
	return result
}
