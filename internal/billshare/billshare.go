package billshare

import (
	"context"
	"sync"
	"time"

	"shopledger/internal/domain"
)

// DefaultTTL is how long a shared bill stays retrievable.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores compact bill snapshots behind short share keys.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.BillSnapshot, bool, error)
	Set(ctx context.Context, key string, snapshot *domain.BillSnapshot, ttl time.Duration) error
}

type memoryEntry struct {
	snapshot  domain.BillSnapshot
	expiresAt time.Time
}

// MemoryCache is the in-process fallback used when Redis is not configured.
// Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*domain.BillSnapshot, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	snapshot := entry.snapshot
	return &snapshot, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, snapshot *domain.BillSnapshot, ttl time.Duration) error {
	if snapshot == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{snapshot: *snapshot, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
