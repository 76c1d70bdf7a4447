package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	entry    Entry
	deadline time.Time
}

// MemoryCache is an in-process Cache for redis-less deployments and tests.
// Expiry is lazy: an entry past its deadline is treated as absent and
// dropped on the next take or put.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{entry: entry, deadline: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) TakeIfPresent(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	me, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	delete(c.entries, key)
	if c.now().After(me.deadline) {
		return nil, nil
	}
	entry := me.entry
	return &entry, nil
}

func (c *MemoryCache) Evict(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
