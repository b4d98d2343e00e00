package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore implements Store using PostgreSQL. The driver is registered
// by the platform database package (pgx in database/sql compatibility mode).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts an audit event into the audit_events table.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, relation_id, action, outcome, status_code,
			hint, cache_hit, request_id, client_ip, user_agent, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		event.RelationID,
		event.Action,
		event.Outcome,
		event.StatusCode,
		event.Hint,
		event.CacheHit,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRelation returns events for one relation identifier, oldest first.
func (s *PostgresStore) ListByRelation(ctx context.Context, relationID string) ([]Event, error) {
	query := `
		SELECT timestamp, relation_id, action, outcome, status_code,
		       hint, cache_hit, request_id, client_ip, user_agent, device
		FROM audit_events
		WHERE relation_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, relationID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.Timestamp, &e.RelationID, &e.Action, &e.Outcome, &e.StatusCode,
			&e.Hint, &e.CacheHit, &e.RequestID, &e.ClientIP, &e.UserAgent, &e.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
