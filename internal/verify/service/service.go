// Package service hosts the verification engine: cache-first relation
// verification against the federation with per-identifier call coalescing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"dossard/internal/audit"
	"dossard/internal/verify/classify"
	"dossard/internal/verify/metrics"
	"dossard/internal/verify/models"
	"dossard/internal/verify/ports"
	"dossard/internal/verify/protocol"
	"dossard/internal/verify/store"
	"dossard/internal/verify/tracer"
	"dossard/internal/verify/transport"
	dErrors "dossard/pkg/domain-errors"
	"dossard/pkg/requestcontext"
)

// DefaultCacheTTL is the freshness window for cached outcomes. Federation
// records change on the scale of a season; a day-old answer is as good as a
// live one for registration purposes.
const DefaultCacheTTL = 24 * time.Hour

// Config holds the engine's service-account credentials and cache policy.
type Config struct {
	// AccountID and AccountSecret are the federation service-account
	// credentials applied when the request carries none.
	AccountID     string
	AccountSecret string
	// CacheTTL overrides DefaultCacheTTL when positive.
	CacheTTL time.Duration
}

// Engine verifies relations against the federation. Outcomes past input
// validation are always values: a declined or failed verification is a
// result, not an error.
type Engine struct {
	cfg        Config
	transport  transport.Transport
	cache      store.CacheStore
	classifier *classify.Classifier
	schema     *protocol.Schema
	auditPort  ports.AuditPort
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	logger     *slog.Logger
	flights    singleflight.Group
	now        func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the tracer for the engine.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithAudit sets the audit port for the engine.
func WithAudit(p ports.AuditPort) Option {
	return func(e *Engine) {
		e.auditPort = p
	}
}

// WithMetrics sets the metrics for the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides the engine's clock. Tests use it to control cache
// expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a verification engine.
func New(cfg Config, tr transport.Transport, cache store.CacheStore, cls *classify.Classifier, opts ...Option) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	e := &Engine{
		cfg:        cfg,
		transport:  tr,
		cache:      cache,
		classifier: cls,
		schema:     protocol.CurrentSchema(),
		tracer:     tracer.NewNoop(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify resolves a verification request, serving from cache when a fresh
// outcome exists and coalescing concurrent live calls for the same relation
// identifier. With forceRefresh the cache is bypassed (but still updated).
//
// The only error returned is invalid input; every upstream failure comes
// back as a typed negative outcome.
func (e *Engine) Verify(ctx context.Context, req models.VerificationRequest, forceRefresh bool) (models.VerificationOutcome, error) {
	e.applyCredentialDefaults(&req)
	if err := req.Validate(); err != nil {
		return models.VerificationOutcome{}, err
	}

	ctx, span := e.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrRelationHash, tracer.HashIdentifier(req.RelationID)),
		tracer.Bool(tracer.AttrForceRefresh, forceRefresh),
	)
	defer span.End(nil)

	// Identity-triple lookups carry no relation identifier, so there is no
	// key to cache or coalesce under; sharing state between them would hand
	// one athlete's record to another. They always go live. A connected
	// result is still cached under the relation number the federation
	// resolved, where direct lookups can find it.
	if req.RelationID == "" {
		outcome := e.liveVerify(ctx, req)
		span.SetAttributes(tracer.String(tracer.AttrOutcomeCode, string(outcome.ErrorCode)))
		e.recordOutcome(outcome)
		e.emitAudit(ctx, resolvedRelationID(req, outcome), outcome, false)
		return outcome, nil
	}

	if !forceRefresh {
		if outcome, ok := e.findCached(ctx, req.RelationID); ok {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
			e.recordOutcome(outcome)
			e.emitAudit(ctx, req.RelationID, outcome, true)
			return outcome, nil
		}
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	// Coalesce concurrent live calls for the same relation. The flight runs
	// on a detached context so one caller giving up does not fail the
	// verification for everyone sharing it.
	flightCtx := context.WithoutCancel(ctx)
	v, _, shared := e.flights.Do(req.RelationID, func() (any, error) {
		return e.liveVerify(flightCtx, req), nil
	})
	if shared {
		span.SetAttributes(tracer.Bool(tracer.AttrSharedFlight, true))
		if e.metrics != nil {
			e.metrics.SharedFlightsTotal.Inc()
		}
	}

	outcome := v.(models.VerificationOutcome)
	span.SetAttributes(tracer.String(tracer.AttrOutcomeCode, string(outcome.ErrorCode)))
	e.recordOutcome(outcome)
	e.emitAudit(ctx, req.RelationID, outcome, false)
	return outcome, nil
}

// Purge drops the cached outcome for a relation identifier. The next
// verification goes live.
func (e *Engine) Purge(ctx context.Context, relationID string) error {
	if err := e.cache.Delete(ctx, relationID); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.CachePurgesTotal.Inc()
	}
	if e.auditPort != nil {
		_ = e.auditPort.Emit(ctx, audit.Event{
			RelationID: relationID,
			Action:     string(audit.ActionCachePurged),
			RequestID:  requestcontext.RequestID(ctx),
			ClientIP:   requestcontext.ClientIP(ctx),
			UserAgent:  requestcontext.UserAgent(ctx),
			Device:     requestcontext.DeviceSummary(ctx),
		})
	}
	return nil
}

func (e *Engine) applyCredentialDefaults(req *models.VerificationRequest) {
	if req.AccountID == "" {
		req.AccountID = e.cfg.AccountID
	}
	if req.AccountSecret == "" {
		req.AccountSecret = e.cfg.AccountSecret
	}
}

func (e *Engine) findCached(ctx context.Context, relationID string) (models.VerificationOutcome, bool) {
	entry, err := e.cache.Find(ctx, relationID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("cache lookup failed, falling through to live call",
				slog.String("error", err.Error()),
			)
		}
		if e.metrics != nil {
			e.metrics.CacheMissesTotal.Inc()
		}
		return models.VerificationOutcome{}, false
	}
	if e.metrics != nil {
		e.metrics.CacheHitsTotal.Inc()
	}
	return entry.Outcome, true
}

// liveVerify performs one upstream call and caches the outcome when the
// verification connected. Negative outcomes are never cached; a transient
// upstream failure must not poison a day of lookups.
func (e *Engine) liveVerify(ctx context.Context, req models.VerificationRequest) models.VerificationOutcome {
	ctx, span := e.tracer.Start(ctx, tracer.SpanLiveCall)
	outcome := e.callUpstream(ctx, req)
	span.End(nil)

	outcome.CheckedAt = e.now()

	if key := resolvedRelationID(req, outcome); outcome.Connected && key != "" {
		entry := &models.CacheEntry{
			RelationID: key,
			Outcome:    outcome,
			CachedAt:   outcome.CheckedAt,
			ExpiresAt:  outcome.CheckedAt.Add(e.cfg.CacheTTL),
		}
		if err := e.cache.Save(ctx, entry); err != nil {
			e.logger.Warn("failed to cache verification outcome",
				slog.String("error", err.Error()),
			)
		}
	}
	return outcome
}

// resolvedRelationID is the cache and audit key for a request: the requested
// relation identifier, or the one the federation resolved for an
// identity-triple lookup.
func resolvedRelationID(req models.VerificationRequest, outcome models.VerificationOutcome) string {
	if req.RelationID != "" {
		return req.RelationID
	}
	if outcome.Athlete != nil {
		return outcome.Athlete.RelationID
	}
	return ""
}

func (e *Engine) callUpstream(ctx context.Context, req models.VerificationRequest) models.VerificationOutcome {
	envelope, err := protocol.BuildEnvelope(req)
	if err != nil {
		// Validate ran before the flight; reaching this means the request
		// mutated in between, which cannot happen.
		return classify.OutcomeFromError(err)
	}

	if e.metrics != nil {
		e.metrics.LiveCallsTotal.Inc()
	}
	start := e.now()
	body, err := e.transport.Send(ctx, envelope)
	if e.metrics != nil {
		e.metrics.LiveCallDurationSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		e.logger.Error("federation call failed", slog.String("error", err.Error()))
		return classify.OutcomeFromError(err)
	}

	fields, err := protocol.Parse(body, e.schema)
	if err != nil {
		e.logger.Error("federation response rejected", slog.String("error", err.Error()))
		return classify.OutcomeFromError(err)
	}

	return e.classifier.Classify(fields, e.seasonYear(req))
}

// seasonYear picks the year category derivation runs against: the
// competition year when the request names one, the current year otherwise.
func (e *Engine) seasonYear(req models.VerificationRequest) int {
	if req.CompetitionDate != "" {
		if d, err := time.Parse("02/01/2006", req.CompetitionDate); err == nil {
			return d.Year()
		}
	}
	return e.now().Year()
}

func (e *Engine) recordOutcome(outcome models.VerificationOutcome) {
	if e.metrics != nil {
		e.metrics.RecordOutcome(string(outcome.ErrorCode))
	}
}

func (e *Engine) emitAudit(ctx context.Context, relationID string, outcome models.VerificationOutcome, cacheHit bool) {
	if e.auditPort == nil {
		return
	}

	action := audit.ActionVerificationServed
	result := audit.OutcomeConnected
	switch {
	case outcome.Connected:
	case outcome.ErrorCode == dErrors.CodeUpstreamSoftDecline ||
		outcome.ErrorCode == dErrors.CodeUpstreamHardError:
		result = audit.OutcomeDeclined
	default:
		action = audit.ActionVerificationFailed
		result = audit.OutcomeError
	}

	_ = e.auditPort.Emit(ctx, audit.Event{
		RelationID: relationID,
		Action:     string(action),
		Outcome:    result,
		StatusCode: string(outcome.ErrorCode),
		Hint:       outcome.Hint,
		CacheHit:   cacheHit,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		Device:     requestcontext.DeviceSummary(ctx),
	})
}
