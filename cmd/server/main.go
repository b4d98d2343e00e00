package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dossard/internal/audit"
	"dossard/internal/platform/config"
	"dossard/internal/platform/database"
	"dossard/internal/platform/httpserver"
	"dossard/internal/platform/kafka/producer"
	"dossard/internal/platform/logger"
	platformredis "dossard/internal/platform/redis"
	"dossard/internal/verify/classify"
	"dossard/internal/verify/handler"
	"dossard/internal/verify/metrics"
	"dossard/internal/verify/service"
	"dossard/internal/verify/store"
	"dossard/internal/verify/tracer"
	"dossard/internal/verify/transport"
	"dossard/pkg/platform/middleware/admin"
	"dossard/pkg/platform/middleware/auth"
	"dossard/pkg/platform/middleware/metadata"
	"dossard/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing dossard",
		"addr", cfg.Addr,
		"mock_federation", cfg.MockFederation,
		"cache_ttl", cfg.CacheTTL.String(),
	)

	m := metrics.New()

	cache, cleanupCache := buildCache(cfg, log, m)
	defer cleanupCache()

	publisher, cleanupAudit := buildAudit(cfg, log)
	defer cleanupAudit()

	var tr transport.Transport
	if cfg.MockFederation {
		tr = transport.NewMockTransport(log, transport.WithLatency(100*time.Millisecond))
	} else {
		tr = transport.NewHTTPTransport(transport.Config{
			URL:               cfg.FederationURL,
			Timeout:           cfg.UpstreamTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             1,
			BreakerFailures:   cfg.BreakerFailures,
			BreakerCooldown:   cfg.BreakerCooldown,
		}, log)
	}

	engine := service.New(
		service.Config{
			AccountID:     cfg.AccountID,
			AccountSecret: cfg.AccountSecret,
			CacheTTL:      cfg.CacheTTL,
		},
		tr,
		cache,
		classify.New(classifierConfig(cfg)),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAudit(publisher),
		service.WithTracer(tracer.NewOTel()),
	)

	h := handler.New(engine, log,
		handler.WithMetrics(m),
		handler.WithAuditReader(publisher),
	)

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.TokenTTL)
	router := buildRouter(cfg, log, h, tokens)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// classifierConfig starts from the production vocabulary and folds in any
// deployment-specific failure codes.
func classifierConfig(cfg config.Server) classify.Config {
	c := classify.DefaultConfig()
	for _, code := range cfg.HardFailureCodes {
		c.FailureCodes[code] = classify.FailureCode{Mode: classify.FailureHard, Hint: c.GenericHint}
	}
	for _, code := range cfg.SoftFailureCodes {
		c.FailureCodes[code] = classify.FailureCode{Mode: classify.FailureSoft, Hint: c.GenericHint}
	}
	return c
}

func buildRouter(cfg config.Server, log *slog.Logger, h *handler.Handler, tokens *auth.TokenService) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(nil).Handler)
	r.Use(request.Logger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Organizer API.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOrganizer(tokens, log))
		h.Register(r)
	})

	// Admin surface.
	if cfg.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, log))
			h.RegisterAdmin(r)
		})
	} else {
		log.Warn("admin token not configured; admin routes disabled")
	}

	return r
}

func buildCache(cfg config.Server, log *slog.Logger, m *metrics.Metrics) (store.CacheStore, func()) {
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient == nil {
		log.Info("using in-memory verification cache")
		mem := store.NewInMemoryCache()
		m.RegisterCacheSize(func() float64 { return float64(mem.Len()) })
		return mem, func() {}
	}
	log.Info("using redis verification cache")
	return store.NewRedisCache(redisClient.Client), func() {
		_ = redisClient.Close()
	}
}

func buildAudit(cfg config.Server, log *slog.Logger) (*audit.Publisher, func()) {
	var auditStore audit.Store = audit.NewInMemoryStore()
	var cleanups []func()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		log.Info("using postgres audit store")
		auditStore = audit.NewPostgresStore(pool.DB())
		cleanups = append(cleanups, func() { _ = pool.Close() })
	}

	opts := []audit.PublisherOption{
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	}

	if cfg.Kafka.Brokers != "" {
		kp, err := producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		log.Info("audit events fan out to kafka", "topic", cfg.Kafka.Topic)
		opts = append(opts, audit.WithSink(audit.NewKafkaSink(kp, cfg.Kafka.Topic)))
		cleanups = append(cleanups, func() { _ = kp.Close() })
	}

	publisher := audit.NewPublisher(auditStore, opts...)
	cleanups = append(cleanups, publisher.Close)

	return publisher, func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
}
