// Package tracer provides a lightweight tracing abstraction for the
// verification engine. It keeps the engine decoupled from OpenTelemetry:
// production wires the OTel adapter, tests use the no-op tracer.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashIdentifier returns a truncated SHA-256 hash of an identifier for safe
// inclusion in traces. Relation identifiers are personal data; traces ship
// to a third-party backend.
func HashIdentifier(identifier string) string {
	if identifier == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the verification engine.
const (
	SpanVerify       = "verify.check"
	SpanLiveCall     = "verify.federation.call"
	SpanCacheLookup  = "verify.cache.lookup"
	SpanClassify     = "verify.classify"
	SpanEligibility  = "verify.eligibility"
)

// Attribute keys used by the verification engine.
const (
	AttrRelationHash   = "relation.hash"
	AttrCacheHit       = "cache.hit"
	AttrSharedFlight   = "flight.shared"
	AttrOutcomeCode    = "outcome.code"
	AttrUpstreamStatus = "upstream.http_status"
	AttrForceRefresh   = "force_refresh"
)

// Event names used by the verification engine.
const (
	EventAuditEmitted = "audit.emitted"
)
