package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	txcontext "h2ledger/pkg/platform/tx"
)

// PostgresStore persists credits and their certification records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the credits and cert_hashes tables if they do not
// exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credits (
			credit_id  BIGINT PRIMARY KEY,
			owner      TEXT NOT NULL,
			retired    BOOLEAN NOT NULL DEFAULT FALSE,
			retired_by TEXT,
			retired_at TIMESTAMPTZ,
			producer   TEXT NOT NULL,
			certifier  TEXT NOT NULL,
			cert_hash  TEXT NOT NULL,
			metadata   TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS credits_owner_idx ON credits (owner);
		CREATE TABLE IF NOT EXISTS cert_hashes (
			cert_hash   TEXT PRIMARY KEY,
			consumed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure credits tables: %w", err)
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

func (s *PostgresStore) InsertBatch(ctx context.Context, batch []Credit) error {
	for i := range batch {
		c := &batch[i]
		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO credits (credit_id, owner, producer, certifier, cert_hash, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			int64(c.ID), c.Owner.String(),
			c.Certification.Producer.String(), c.Certification.Certifier.String(),
			c.Certification.CertHash.String(), c.Certification.Metadata, c.Certification.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert credit %d: %w", c.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.CreditID) (Credit, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT credit_id, owner, retired, retired_by, retired_at,
		       producer, certifier, cert_hash, metadata, created_at
		FROM credits WHERE credit_id = $1`, int64(id))

	credit, err := scanCredit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Credit{}, ErrNotFound
	}
	if err != nil {
		return Credit{}, fmt.Errorf("get credit: %w", err)
	}
	return credit, nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, id domain.CreditID, owner domain.Address) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE credits SET owner = $2 WHERE credit_id = $1`,
		int64(id), owner.String())
	if err != nil {
		return fmt.Errorf("set credit owner: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) MarkRetired(ctx context.Context, id domain.CreditID, by domain.Address, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE credits SET retired = TRUE, retired_by = $2, retired_at = $3
		WHERE credit_id = $1`,
		int64(id), by.String(), at)
	if err != nil {
		return fmt.Errorf("mark credit retired: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.Address) ([]domain.CreditID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT credit_id FROM credits WHERE owner = $1 ORDER BY credit_id`,
		owner.String())
	if err != nil {
		return nil, fmt.Errorf("list credits by owner: %w", err)
	}
	defer rows.Close()

	var out []domain.CreditID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan credit id: %w", err)
		}
		out = append(out, domain.CreditID(id))
	}
	return out, rows.Err()
}

func (s *PostgresStore) HighWater(ctx context.Context) (uint64, error) {
	var high sql.NullInt64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT MAX(credit_id) FROM credits`).Scan(&high)
	if err != nil {
		return 0, fmt.Errorf("query high water: %w", err)
	}
	if !high.Valid {
		return 0, nil
	}
	return uint64(high.Int64), nil
}

func scanCredit(scan func(dest ...any) error) (Credit, error) {
	var (
		id                         int64
		owner, producer, certifier string
		retiredBy                  sql.NullString
		retiredAt                  sql.NullTime
		certHash                   string
		c                          Credit
	)
	err := scan(&id, &owner, &c.Retired, &retiredBy, &retiredAt,
		&producer, &certifier, &certHash, &c.Certification.Metadata, &c.Certification.CreatedAt)
	if err != nil {
		return Credit{}, err
	}

	c.ID = domain.CreditID(id)
	if c.Owner, err = domain.ParseAddress(owner); err != nil {
		return Credit{}, err
	}
	if c.Certification.Producer, err = domain.ParseAddress(producer); err != nil {
		return Credit{}, err
	}
	if c.Certification.Certifier, err = domain.ParseAddress(certifier); err != nil {
		return Credit{}, err
	}
	if c.Certification.CertHash, err = domain.ParseCertHash(certHash); err != nil {
		return Credit{}, err
	}
	if retiredBy.Valid {
		if c.RetiredBy, err = domain.ParseAddress(retiredBy.String); err != nil {
			return Credit{}, err
		}
	}
	if retiredAt.Valid {
		at := retiredAt.Time
		c.RetiredAt = &at
	}
	return c, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresHashLedger implements the consumed-hash set on the cert_hashes
// table. The primary key is the test-and-set: a conflicting insert affects
// zero rows. Joining the context transaction makes the consume atomic with
// the mint that follows it.
type PostgresHashLedger struct {
	db *sql.DB
}

func NewPostgresHashLedger(db *sql.DB) *PostgresHashLedger {
	return &PostgresHashLedger{db: db}
}

func (l *PostgresHashLedger) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return l.db
}

func (l *PostgresHashLedger) Consume(ctx context.Context, hash domain.CertHash) error {
	res, err := l.execer(ctx).ExecContext(ctx, `
		INSERT INTO cert_hashes (cert_hash) VALUES ($1)
		ON CONFLICT (cert_hash) DO NOTHING`, hash.String())
	if err != nil {
		return fmt.Errorf("consume certification hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume certification hash: %w", err)
	}
	if affected == 0 {
		return ledger.ErrHashReused
	}
	return nil
}

func (l *PostgresHashLedger) Consumed(ctx context.Context, hash domain.CertHash) (bool, error) {
	var exists bool
	err := l.execer(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM cert_hashes WHERE cert_hash = $1)`,
		hash.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check certification hash: %w", err)
	}
	return exists, nil
}
