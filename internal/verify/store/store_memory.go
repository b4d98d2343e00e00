package store

import (
	"context"
	"sync"
	"time"

	"dossard/internal/verify/models"
)

// InMemoryCache keeps entries in a map guarded by an RWMutex. Expired
// entries are evicted lazily on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
}

var _ CacheStore = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]models.CacheEntry),
	}
}

func (c *InMemoryCache) Find(_ context.Context, relationID string) (*models.CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[relationID]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if entry.Expired(time.Now()) {
		c.mu.Lock()
		// re-check under the write lock; a fresher entry may have landed
		if cur, ok := c.entries[relationID]; ok && cur.Expired(time.Now()) {
			delete(c.entries, relationID)
		}
		c.mu.Unlock()
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (c *InMemoryCache) Save(_ context.Context, entry *models.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.RelationID] = *entry
	return nil
}

// Len reports the current entry count, including entries that expired but
// have not been read since.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryCache) Delete(_ context.Context, relationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, relationID)
	return nil
}
