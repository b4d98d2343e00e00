// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures everything the process needs to run.
type Server struct {
	Addr string

	// Federation upstream.
	FederationURL     string
	AccountID         string
	AccountSecret     string
	UpstreamTimeout   time.Duration
	RequestsPerSecond float64
	BreakerFailures   uint32
	BreakerCooldown   time.Duration

	// MockFederation forces the fixture transport. It also activates
	// automatically when no service-account credentials are configured, so a
	// bare development start works out of the box.
	MockFederation bool

	// HardFailureCodes and SoftFailureCodes extend the classifier's
	// failure-code table for federations with a different error dialect.
	HardFailureCodes []string
	SoftFailureCodes []string

	CacheTTL time.Duration

	// Organizer API tokens.
	JWTSigningKey string
	TokenTTL      time.Duration

	// AdminToken guards the admin routes; a bcrypt hash is accepted.
	AdminToken string

	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
}

// RedisConfig holds cache backend settings. An empty URL selects the
// in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds audit persistence settings. An empty URL selects the
// in-memory audit store.
type DatabaseConfig struct {
	URL string
}

// KafkaConfig holds the audit fan-out settings. Empty brokers disable the
// Kafka sink.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("DOSSARD_ADDR", ":8080"),
		FederationURL:     os.Getenv("FEDERATION_URL"),
		AccountID:         os.Getenv("FEDERATION_ACCOUNT_ID"),
		AccountSecret:     os.Getenv("FEDERATION_ACCOUNT_SECRET"),
		UpstreamTimeout:   envDuration("FEDERATION_TIMEOUT", 10*time.Second),
		RequestsPerSecond: envFloat("FEDERATION_RPS", 10),
		BreakerFailures:   uint32(envInt("FEDERATION_BREAKER_FAILURES", 5)),
		BreakerCooldown:   envDuration("FEDERATION_BREAKER_COOLDOWN", 30*time.Second),
		MockFederation:    os.Getenv("FEDERATION_MOCK") == "true",
		HardFailureCodes:  envList("FEDERATION_HARD_CODES"),
		SoftFailureCodes:  envList("FEDERATION_SOFT_CODES"),
		CacheTTL:          envDuration("VERIFY_CACHE_TTL", 24*time.Hour),
		JWTSigningKey:     envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:          envDuration("TOKEN_TTL", 12*time.Hour),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "dossard.audit.events"),
		},
	}

	// No credentials means no real federation account; fall back to the
	// fixture transport rather than hammering the upstream with rejects.
	if cfg.AccountID == "" || cfg.AccountSecret == "" {
		cfg.MockFederation = true
	}

	// The fixture transport never authenticates, but request validation
	// still requires credentials; placeholders keep mock mode answering.
	if cfg.MockFederation {
		if cfg.AccountID == "" {
			cfg.AccountID = "TEST"
		}
		if cfg.AccountSecret == "" {
			cfg.AccountSecret = "TEST"
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
