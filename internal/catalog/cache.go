package catalog

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache stores encoded catalog entries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Purge(ctx context.Context) error
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	limit int
	now   func() time.Time
}

// NewMemoryCache returns a disabled cache when limit or ttl is not positive.
func NewMemoryCache(limit int, ttl time.Duration) *MemoryCache {
	if limit <= 0 || ttl <= 0 {
		return &MemoryCache{items: nil, now: time.Now}
	}

	return &MemoryCache{
		items: make(map[string]cacheItem, limit),
		ttl:   ttl,
		limit: limit,
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.items == nil {
		return nil, false, nil
	}

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expiresAt) {
		if ok {
			c.mu.Lock()
			delete(c.items, key)
			c.mu.Unlock()
		}
		return nil, false, nil
	}

	return item.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	if c.items == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// simple eviction: if over limit, reset cache
	if len(c.items) >= c.limit {
		c.items = make(map[string]cacheItem, c.limit)
	}

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Purge(_ context.Context) error {
	if c.items == nil {
		return nil
	}

	c.mu.Lock()
	c.items = make(map[string]cacheItem, c.limit)
	c.mu.Unlock()
	return nil
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
