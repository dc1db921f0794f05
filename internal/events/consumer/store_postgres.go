package consumer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresMirror stores the collaborator-facing mirror tables. Each write
// records the event id that produced it, so replays collapse to no-ops.
type PostgresMirror struct {
	db *sql.DB
}

// NewPostgresMirror creates a postgres-backed mirror store.
func NewPostgresMirror(db *sql.DB) *PostgresMirror {
	return &PostgresMirror{db: db}
}

// EnsureSchema creates the mirror tables if they do not exist.
func (s *PostgresMirror) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mirror_role_grants (
			account      TEXT NOT NULL,
			role         TEXT NOT NULL,
			jurisdiction BIGINT NOT NULL DEFAULT 0,
			granted_by   TEXT NOT NULL,
			event_id     UUID NOT NULL,
			PRIMARY KEY (account, role)
		);
		CREATE TABLE IF NOT EXISTS mirror_credits (
			credit_id  BIGINT PRIMARY KEY,
			owner      TEXT NOT NULL,
			cert_hash  TEXT NOT NULL,
			retired    BOOLEAN NOT NULL DEFAULT FALSE,
			retired_by TEXT,
			event_id   UUID NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure mirror tables: %w", err)
	}
	return nil
}

func (s *PostgresMirror) UpsertRoleGrant(ctx context.Context, eventID uuid.UUID, account, role string, jurisdiction uint64, grantedBy string) error {
	// The core never re-grants a role, so on conflict the row already
	// reflects ledger state; DO NOTHING keeps the replay idempotent.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mirror_role_grants (account, role, jurisdiction, granted_by, event_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account, role) DO NOTHING`,
		account, role, int64(jurisdiction), grantedBy, eventID,
	)
	if err != nil {
		return fmt.Errorf("upsert role grant: %w", err)
	}
	return nil
}

func (s *PostgresMirror) UpsertCreditBatch(ctx context.Context, eventID uuid.UUID, owner string, firstID, lastID uint64, certHash string) error {
	for id := firstID; id <= lastID; id++ {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO mirror_credits (credit_id, owner, cert_hash, event_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (credit_id) DO NOTHING`,
			int64(id), owner, certHash, eventID,
		)
		if err != nil {
			return fmt.Errorf("upsert credit %d: %w", id, err)
		}
	}
	return nil
}

func (s *PostgresMirror) SetOwner(ctx context.Context, eventID uuid.UUID, creditID uint64, owner string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE mirror_credits SET owner = $2, event_id = $3
		WHERE credit_id = $1`,
		int64(creditID), owner, eventID,
	)
	if err != nil {
		return fmt.Errorf("mirror set owner: %w", err)
	}
	return nil
}

func (s *PostgresMirror) MarkRetired(ctx context.Context, eventID uuid.UUID, creditID uint64, retiredBy string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE mirror_credits SET retired = TRUE, retired_by = $2, event_id = $3
		WHERE credit_id = $1`,
		int64(creditID), retiredBy, eventID,
	)
	if err != nil {
		return fmt.Errorf("mirror mark retired: %w", err)
	}
	return nil
}
