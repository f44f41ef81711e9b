package audit

import (
	"context"
	"database/sql"
	"fmt"

	"caseflow/pkg/domain"
)

// PostgresStore appends events to the transition_events table. Audit writes
// happen after the transition commits, so this store deliberately does not
// join the transition's transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transition_events (request_id, from_state, to_state, actor_id, comment,
			correlation_id, client_ip, user_agent, sla_band, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.RequestID.String(), event.FromState, event.ToState, event.ActorID,
		event.Comment, event.CorrelationID, event.ClientIP, event.UserAgent,
		event.SLABand, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert transition event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, from_state, to_state, actor_id, comment, correlation_id,
		       client_ip, user_agent, sla_band, occurred_at
		FROM transition_events WHERE request_id = $1 ORDER BY occurred_at`, requestID.String())
	if err != nil {
		return nil, fmt.Errorf("list transition events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		var rid string
		if err := rows.Scan(&rid, &event.FromState, &event.ToState, &event.ActorID,
			&event.Comment, &event.CorrelationID, &event.ClientIP, &event.UserAgent,
			&event.SLABand, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan transition event: %w", err)
		}
		event.RequestID, err = domain.ParseRequestID(rid)
		if err != nil {
			return nil, fmt.Errorf("parse event request id: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
