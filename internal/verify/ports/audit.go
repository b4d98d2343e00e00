// Package ports defines the interfaces the verification engine needs from
// the rest of the system, keeping it decoupled from concrete
// implementations.
package ports

import (
	"context"

	"dossard/internal/audit"
)

// AuditPort lets the engine emit audit events without depending on the
// audit publisher implementation.
type AuditPort interface {
	// Emit publishes an audit event.
	// Returns nil on success, error on failure (e.g., buffer full).
	Emit(ctx context.Context, event audit.Event) error
}
