package credits

import (
	"context"
	"sync"
	"time"

	"h2ledger/pkg/domain"
)

// InMemoryStore keeps credits in allocation order. Ids are sequential from 1,
// so the slice index is id-1 and enumeration in ledger order is a linear
// scan. Empty at genesis, no teardown.
type InMemoryStore struct {
	mu      sync.RWMutex
	credits []Credit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) InsertBatch(_ context.Context, batch []Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = append(s.credits, batch...)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.CreditID) (Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(s.credits) {
		return Credit{}, ErrNotFound
	}
	return s.credits[idx], nil
}

func (s *InMemoryStore) SetOwner(_ context.Context, id domain.CreditID, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(s.credits) {
		return ErrNotFound
	}
	s.credits[idx].Owner = owner
	return nil
}

func (s *InMemoryStore) MarkRetired(_ context.Context, id domain.CreditID, by domain.Address, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(s.credits) {
		return ErrNotFound
	}
	s.credits[idx].Retired = true
	s.credits[idx].RetiredBy = by
	s.credits[idx].RetiredAt = &at
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.Address) ([]domain.CreditID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CreditID
	for i := range s.credits {
		if s.credits[i].Owner == owner {
			out = append(out, s.credits[i].ID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) HighWater(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.credits)), nil
}
