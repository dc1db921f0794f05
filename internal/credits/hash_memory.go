package credits

import (
	"context"
	"sync"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
)

// InMemoryHashLedger is the process-local consumed-hash set.
type InMemoryHashLedger struct {
	mu       sync.Mutex
	consumed map[domain.CertHash]struct{}
}

func NewInMemoryHashLedger() *InMemoryHashLedger {
	return &InMemoryHashLedger{consumed: make(map[domain.CertHash]struct{})}
}

func (l *InMemoryHashLedger) Consume(_ context.Context, hash domain.CertHash) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.consumed[hash]; ok {
		return ledger.ErrHashReused
	}
	l.consumed[hash] = struct{}{}
	return nil
}

func (l *InMemoryHashLedger) Consumed(_ context.Context, hash domain.CertHash) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.consumed[hash]
	return ok, nil
}

func (l *InMemoryHashLedger) Release(_ context.Context, hash domain.CertHash) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.consumed, hash)
	return nil
}
