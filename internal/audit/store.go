package audit

import (
	"context"

	dErrors "dossard/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRelation(ctx context.Context, relationID string) ([]Event, error)
}
