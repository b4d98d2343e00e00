package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dossard/internal/verify/models"
)

const redisKeyPrefix = "verify:relation:"

// RedisCache persists verification outcomes in Redis with TTL eviction.
// Redis enforces the freshness window, so Find never sees expired entries.
type RedisCache struct {
	client *redis.Client
}

var _ CacheStore = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Find(ctx context.Context, relationID string) (*models.CacheEntry, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+relationID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cache entry: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (c *RedisCache) Save(ctx context.Context, entry *models.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry is required")
	}
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+entry.RelationID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, relationID string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+relationID).Err(); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
