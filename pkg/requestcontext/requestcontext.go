// Package requestcontext centralizes context keys for request-scoped values
// so middleware and handlers agree on how metadata travels through a request.
package requestcontext

import "context"

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientIP
	keyUserAgent
	keyDeviceSummary
	keyAdminActor
	keyOrganizer
)

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID retrieves the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithClientMetadata stores the caller's IP and User-Agent in the context.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, ip)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

// ClientIP retrieves the caller's IP address, or "" when absent.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

// UserAgent retrieves the raw User-Agent header, or "" when absent.
func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithDeviceSummary stores the parsed device descriptor (browser/os/platform).
func WithDeviceSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, keyDeviceSummary, summary)
}

// DeviceSummary retrieves the parsed device descriptor, or "" when absent.
func DeviceSummary(ctx context.Context) string {
	v, _ := ctx.Value(keyDeviceSummary).(string)
	return v
}

// WithAdminActor stores the admin actor identifier for audit attribution.
func WithAdminActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, keyAdminActor, actor)
}

// AdminActor retrieves the admin actor identifier, or "" when absent.
func AdminActor(ctx context.Context) string {
	v, _ := ctx.Value(keyAdminActor).(string)
	return v
}

// WithOrganizer stores the authenticated organizer identifier.
func WithOrganizer(ctx context.Context, organizer string) context.Context {
	return context.WithValue(ctx, keyOrganizer, organizer)
}

// Organizer retrieves the authenticated organizer identifier, or "" when
// absent.
func Organizer(ctx context.Context) string {
	v, _ := ctx.Value(keyOrganizer).(string)
	return v
}
