package roles

import (
	"context"
	"errors"

	"h2ledger/pkg/domain"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = errors.New("grant not found")

// Store holds role grants. Implementations must make Save atomic with the
// duplicate check: saving a (account, role) pair that already exists returns
// ledger.ErrAlreadyHeld without modifying anything.
type Store interface {
	Save(ctx context.Context, grant Grant) error
	Has(ctx context.Context, account domain.Address, role domain.Role) (bool, error)
	Get(ctx context.Context, account domain.Address, role domain.Role) (Grant, error)
	ListByAccount(ctx context.Context, account domain.Address) ([]Grant, error)
}
