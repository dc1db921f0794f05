package roles

import (
	"context"
	"sort"
	"sync"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
)

// InMemoryStore keeps role grants in process memory. Empty at genesis, no
// teardown; the appointment protocol above it provides all ordering.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[domain.Address]map[domain.Role]Grant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[domain.Address]map[domain.Role]Grant)}
}

func (s *InMemoryStore) Save(_ context.Context, grant Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byRole, ok := s.grants[grant.Account]
	if !ok {
		byRole = make(map[domain.Role]Grant)
		s.grants[grant.Account] = byRole
	}
	if _, held := byRole[grant.Role]; held {
		return ledger.ErrAlreadyHeld
	}
	byRole[grant.Role] = grant
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, account domain.Address, role domain.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, held := s.grants[account][role]
	return held, nil
}

func (s *InMemoryStore) Get(_ context.Context, account domain.Address, role domain.Role) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grant, held := s.grants[account][role]
	if !held {
		return Grant{}, ErrNotFound
	}
	return grant, nil
}

func (s *InMemoryStore) ListByAccount(_ context.Context, account domain.Address) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Grant
	for _, grant := range s.grants[account] {
		out = append(out, grant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}
