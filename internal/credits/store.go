package credits

import (
	"context"
	"errors"
	"time"

	"h2ledger/pkg/domain"
)

// ErrNotFound keeps store-level misses consistent across implementations.
// Services translate it to ledger.ErrUnknownCredit.
var ErrNotFound = errors.New("credit not found")

// Store holds minted credits. Ids are allocated by the service as
// HighWater()+1..HighWater()+n; implementations only persist.
type Store interface {
	InsertBatch(ctx context.Context, batch []Credit) error
	Get(ctx context.Context, id domain.CreditID) (Credit, error)
	SetOwner(ctx context.Context, id domain.CreditID, owner domain.Address) error
	MarkRetired(ctx context.Context, id domain.CreditID, by domain.Address, at time.Time) error
	// ListByOwner returns the owner's credit ids in ledger (id) order,
	// snapshot at call time.
	ListByOwner(ctx context.Context, owner domain.Address) ([]domain.CreditID, error)
	// HighWater returns the highest allocated credit id, 0 at genesis.
	HighWater(ctx context.Context) (uint64, error)
}

// HashLedger is the set of consumed certification hashes: the double-mint
// defense. Consume must be atomic test-and-set; consuming an already present
// hash returns ledger.ErrHashReused. Implementations living outside the
// transition transaction additionally provide Release (see HashReleaser) so
// an aborted mint does not burn the hash.
type HashLedger interface {
	Consume(ctx context.Context, hash domain.CertHash) error
	Consumed(ctx context.Context, hash domain.CertHash) (bool, error)
}

// HashReleaser undoes a consume whose mint aborted, keeping the hash
// spendable. Transactional hash ledgers omit it: their rollback is the
// release, and an explicit delete could clobber a concurrent consumer's
// committed row.
type HashReleaser interface {
	Release(ctx context.Context, hash domain.CertHash) error
}
