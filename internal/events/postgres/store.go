// Package postgres implements the events store using the transactional
// outbox pattern. Events are written to the outbox table in the same
// transaction as the state change (via the tx context carrier) and published
// to Kafka by the relay worker. The broker is the source of truth for
// downstream collaborators.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"h2ledger/internal/events"
	txcontext "h2ledger/pkg/platform/tx"
)

// Store writes events to the outbox table.
type Store struct {
	db *sql.DB
}

// New creates a postgres-backed outbox store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// EnsureSchema creates the outbox table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS event_outbox (
			id           UUID PRIMARY KEY,
			event_type   TEXT NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			published_at TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("ensure event_outbox: %w", err)
	}
	return nil
}

// Append writes one event to the outbox for later relay.
func (s *Store) Append(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO event_outbox (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		event.ID, string(event.Type), payload, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit unpublished entries in creation order.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]events.PendingEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished: %w", err)
	}
	defer rows.Close()

	var out []events.PendingEvent
	for rows.Next() {
		var p events.PendingEvent
		if err := rows.Scan(&p.ID, &p.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPublished stamps one entry as relayed.
func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE event_outbox SET published_at = now()
		WHERE id = $1 AND published_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
