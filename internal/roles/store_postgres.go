package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	txcontext "h2ledger/pkg/platform/tx"
)

// PostgresStore persists role grants. The (account, role) primary key is the
// AlreadyHeld defense at this layer: a conflicting insert affects zero rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the role_grants table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS role_grants (
			account      TEXT NOT NULL,
			role         TEXT NOT NULL,
			jurisdiction BIGINT NOT NULL DEFAULT 0,
			granted_by   TEXT NOT NULL,
			granted_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (account, role)
		)`)
	if err != nil {
		return fmt.Errorf("ensure role_grants: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, grant Grant) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO role_grants (account, role, jurisdiction, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account, role) DO NOTHING`,
		grant.Account.String(), grant.Role.String(), int64(grant.Jurisdiction),
		grant.GrantedBy.String(), grant.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("insert role grant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert role grant: %w", err)
	}
	if affected == 0 {
		return ledger.ErrAlreadyHeld
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, account domain.Address, role domain.Role) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_grants WHERE account = $1 AND role = $2
		)`, account.String(), role.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query role grant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Get(ctx context.Context, account domain.Address, role domain.Role) (Grant, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT account, role, jurisdiction, granted_by, granted_at
		FROM role_grants WHERE account = $1 AND role = $2`,
		account.String(), role.String())
	grant, err := scanGrant(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Grant{}, ErrNotFound
	}
	if err != nil {
		return Grant{}, fmt.Errorf("get role grant: %w", err)
	}
	return grant, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, account domain.Address) ([]Grant, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT account, role, jurisdiction, granted_by, granted_at
		FROM role_grants WHERE account = $1 ORDER BY role`,
		account.String())
	if err != nil {
		return nil, fmt.Errorf("list role grants: %w", err)
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		grant, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan role grant: %w", err)
		}
		out = append(out, grant)
	}
	return out, rows.Err()
}

func scanGrant(scan func(dest ...any) error) (Grant, error) {
	var (
		account, role, grantedBy string
		jurisdiction             int64
		grant                    Grant
	)
	if err := scan(&account, &role, &jurisdiction, &grantedBy, &grant.GrantedAt); err != nil {
		return Grant{}, err
	}
	acc, err := domain.ParseAddress(account)
	if err != nil {
		return Grant{}, err
	}
	by, err := domain.ParseAddress(grantedBy)
	if err != nil {
		return Grant{}, err
	}
	grant.Account = acc
	grant.GrantedBy = by
	grant.Role = domain.Role(role)
	grant.Jurisdiction = domain.JurisdictionID(jurisdiction)
	return grant, nil
}
