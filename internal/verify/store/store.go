// Package store persists verification cache entries. Two implementations
// exist: an in-process map for single-instance deployments and tests, and a
// Redis cache for anything that runs more than one replica.
package store

import (
	"context"
	"errors"

	"dossard/internal/verify/models"
)

// ErrNotFound marks a cache miss. Expired entries are reported as misses.
var ErrNotFound = errors.New("cache entry not found")

// CacheStore caches verification outcomes keyed by relation identifier.
type CacheStore interface {
	Find(ctx context.Context, relationID string) (*models.CacheEntry, error)
	Save(ctx context.Context, entry *models.CacheEntry) error
	Delete(ctx context.Context, relationID string) error
}
