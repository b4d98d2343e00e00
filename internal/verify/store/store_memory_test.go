package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossard/internal/verify/models"
)

func entry(relationID string, ttl time.Duration) *models.CacheEntry {
	now := time.Now()
	return &models.CacheEntry{
		RelationID: relationID,
		Outcome: models.VerificationOutcome{
			Connected:     true,
			StatusMessage: "OK",
		},
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestInMemoryCache_SaveAndFind(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, entry("1756134", time.Hour)))

	got, err := c.Find(ctx, "1756134")
	require.NoError(t, err)
	assert.Equal(t, "1756134", got.RelationID)
	assert.True(t, got.Outcome.Connected)
}

func TestInMemoryCache_MissReturnsErrNotFound(t *testing.T) {
	c := NewInMemoryCache()

	_, err := c.Find(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, entry("1756134", -time.Minute)))

	_, err := c.Find(ctx, "1756134")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryCache_SaveSupersedes(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	first := entry("1756134", time.Hour)
	first.Outcome.StatusMessage = "first"
	require.NoError(t, c.Save(ctx, first))

	second := entry("1756134", time.Hour)
	second.Outcome.StatusMessage = "second"
	require.NoError(t, c.Save(ctx, second))

	got, err := c.Find(ctx, "1756134")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Outcome.StatusMessage)
}

func TestInMemoryCache_Delete(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, entry("1756134", time.Hour)))
	require.NoError(t, c.Delete(ctx, "1756134"))

	_, err := c.Find(ctx, "1756134")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, c.Delete(ctx, "absent"))
}
