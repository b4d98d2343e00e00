package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("bare environment enables mock mode with usable credentials", func(t *testing.T) {
		t.Setenv("FEDERATION_ACCOUNT_ID", "")
		t.Setenv("FEDERATION_ACCOUNT_SECRET", "")

		cfg := FromEnv()

		assert.True(t, cfg.MockFederation)
		assert.NotEmpty(t, cfg.AccountID, "mock mode must leave credentials request-valid")
		assert.NotEmpty(t, cfg.AccountSecret, "mock mode must leave credentials request-valid")
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	})

	t.Run("configured credentials disable mock mode and are preserved", func(t *testing.T) {
		t.Setenv("FEDERATION_ACCOUNT_ID", "999999")
		t.Setenv("FEDERATION_ACCOUNT_SECRET", "hunter2")

		cfg := FromEnv()

		assert.False(t, cfg.MockFederation)
		assert.Equal(t, "999999", cfg.AccountID)
		assert.Equal(t, "hunter2", cfg.AccountSecret)
	})

	t.Run("forced mock mode keeps configured credentials", func(t *testing.T) {
		t.Setenv("FEDERATION_MOCK", "true")
		t.Setenv("FEDERATION_ACCOUNT_ID", "999999")
		t.Setenv("FEDERATION_ACCOUNT_SECRET", "hunter2")

		cfg := FromEnv()

		assert.True(t, cfg.MockFederation)
		assert.Equal(t, "999999", cfg.AccountID)
	})

	t.Run("failure code lists are parsed and trimmed", func(t *testing.T) {
		t.Setenv("FEDERATION_HARD_CODES", "E90, E91 ,")
		t.Setenv("FEDERATION_SOFT_CODES", "")

		cfg := FromEnv()

		assert.Equal(t, []string{"E90", "E91"}, cfg.HardFailureCodes)
		assert.Nil(t, cfg.SoftFailureCodes)
	})

	t.Run("durations fall back on garbage input", func(t *testing.T) {
		t.Setenv("VERIFY_CACHE_TTL", "yesterday")

		cfg := FromEnv()

		assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	})
}
