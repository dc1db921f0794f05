package credits

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"h2ledger/internal/events"
	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	"h2ledger/pkg/requestcontext"
)

// RoleChecker is the ledger's view of the role registry, used for the
// circuit-breaker capability check.
type RoleChecker interface {
	HasRole(ctx context.Context, account domain.Address, role domain.Role) (bool, error)
}

// EventSink receives the ledger's observations.
type EventSink interface {
	Emit(ctx context.Context, event events.Event) error
}

// Ledger is the credit state machine. All mutations run inside the shared
// transition boundary, so id allocation, hash consumption, and ownership
// changes are totally ordered and all-or-nothing. Failure conditions are
// validated before the first write.
type Ledger struct {
	store   Store
	hashes  HashLedger
	tx      ledger.Tx
	roles   RoleChecker
	sink    EventSink
	logger  *slog.Logger
	metrics *Metrics

	ceiling uint64
	paused  atomic.Bool
}

// NewLedger builds the credit ledger. ceiling caps a single mint batch;
// zero falls back to the default policy ceiling of 1000.
func NewLedger(store Store, hashes HashLedger, tx ledger.Tx, roles RoleChecker, sink EventSink, logger *slog.Logger, metrics *Metrics, ceiling uint64) *Ledger {
	if ceiling == 0 {
		ceiling = 1000
	}
	return &Ledger{
		store:   store,
		hashes:  hashes,
		tx:      tx,
		roles:   roles,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		ceiling: ceiling,
	}
}

// ValidateAmount rejects batch sizes outside (0, ceiling]. The bound caps the
// per-call loop cost and limits a single certification's blast radius.
func (l *Ledger) ValidateAmount(amount uint64) error {
	if amount == 0 || amount > l.ceiling {
		return ledger.ErrInvalidAmount
	}
	return nil
}

// MintCertified consumes the certification hash and mints amount credits to
// the producer as one transition. The hash consumption strictly precedes the
// insert inside the same transaction: of two concurrent calls presenting the
// same hash, exactly one observes it unconsumed.
func (l *Ledger) MintCertified(ctx context.Context, record CertificationRecord, amount uint64) (first, last domain.CreditID, err error) {
	if record.Producer.IsZero() {
		return 0, 0, ledger.ErrZeroIdentity
	}
	if err := l.ValidateAmount(amount); err != nil {
		return 0, 0, err
	}

	var hashConsumed bool
	err = l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if l.paused.Load() {
			return ledger.ErrPaused
		}
		if err := l.hashes.Consume(ctx, record.CertHash); err != nil {
			return err
		}
		hashConsumed = true
		high, err := l.store.HighWater(ctx)
		if err != nil {
			return err
		}
		first = domain.CreditID(high + 1)
		last = domain.CreditID(high + amount)

		batch := make([]Credit, 0, amount)
		for id := first; id <= last; id++ {
			batch = append(batch, Credit{
				ID:            id,
				Owner:         record.Producer,
				Certification: record,
			})
		}
		if err := l.store.InsertBatch(ctx, batch); err != nil {
			return err
		}
		return l.sink.Emit(ctx, events.Event{
			Type:      events.TypeCreditsIssued,
			Timestamp: record.CreatedAt,
			Account:   record.Producer.String(),
			Actor:     record.Certifier.String(),
			Amount:    amount,
			FirstID:   uint64(first),
			LastID:    uint64(last),
			CertHash:  record.CertHash.String(),
		})
	})
	if err != nil {
		// A transactional hash ledger rolled back with the mint. One living
		// outside the transaction must be compensated, or the hash is burned
		// with no credits to show for it.
		if releaser, ok := l.hashes.(HashReleaser); ok && hashConsumed {
			if relErr := releaser.Release(context.WithoutCancel(ctx), record.CertHash); relErr != nil {
				l.logger.ErrorContext(ctx, "certification hash stuck consumed after aborted mint",
					"cert_hash", record.CertHash.String(), "error", relErr)
			}
		}
		return 0, 0, err
	}

	l.metrics.ObserveMint(int(amount))
	l.logger.InfoContext(ctx, "credits issued",
		"producer", record.Producer.String(),
		"certifier", record.Certifier.String(),
		"amount", amount,
		"first_id", uint64(first),
		"last_id", uint64(last),
	)
	return first, last, nil
}

// Transfer reassigns ownership. The caller must own the credit; retired
// credits are permanently non-transferable.
func (l *Ledger) Transfer(ctx context.Context, caller, to domain.Address, id domain.CreditID) error {
	if caller.IsZero() || to.IsZero() {
		return ledger.ErrZeroIdentity
	}
	err := l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if l.paused.Load() {
			return ledger.ErrPaused
		}
		credit, err := l.getCredit(ctx, id)
		if err != nil {
			return err
		}
		if credit.Retired {
			return ledger.ErrRetiredTransfer
		}
		if credit.Owner != caller {
			return ledger.ErrNotOwner
		}
		if err := l.store.SetOwner(ctx, id, to); err != nil {
			return err
		}
		return l.sink.Emit(ctx, events.Event{
			Type:      events.TypeCreditTransferred,
			Timestamp: requestcontext.Now(ctx),
			Account:   to.String(),
			Actor:     caller.String(),
			CreditID:  uint64(id),
		})
	})
	if err != nil {
		return err
	}
	l.metrics.IncTransferred()
	return nil
}

// Retire permanently freezes the credit's ownership. Only the current owner
// may retire, and only once.
func (l *Ledger) Retire(ctx context.Context, caller domain.Address, id domain.CreditID) error {
	if caller.IsZero() {
		return ledger.ErrZeroIdentity
	}
	err := l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if l.paused.Load() {
			return ledger.ErrPaused
		}
		credit, err := l.getCredit(ctx, id)
		if err != nil {
			return err
		}
		if credit.Retired {
			return ledger.ErrAlreadyRetired
		}
		if credit.Owner != caller {
			return ledger.ErrNotOwner
		}
		now := requestcontext.Now(ctx)
		if err := l.store.MarkRetired(ctx, id, caller, now); err != nil {
			return err
		}
		return l.sink.Emit(ctx, events.Event{
			Type:      events.TypeCreditRetired,
			Timestamp: now,
			Account:   credit.Owner.String(),
			Actor:     caller.String(),
			CreditID:  uint64(id),
		})
	})
	if err != nil {
		return err
	}
	l.metrics.IncRetired()
	l.logger.InfoContext(ctx, "credit retired", "credit_id", uint64(id), "retired_by", caller.String())
	return nil
}

// Pause engages the circuit breaker. Reserved to main_admin; all
// state-changing entry points abort with Paused until Unpause.
func (l *Ledger) Pause(ctx context.Context, caller domain.Address) error {
	return l.setPaused(ctx, caller, true)
}

// Unpause clears the circuit breaker. Reserved to main_admin.
func (l *Ledger) Unpause(ctx context.Context, caller domain.Address) error {
	return l.setPaused(ctx, caller, false)
}

// Paused reports the circuit-breaker state. Pure query.
func (l *Ledger) Paused() bool {
	return l.paused.Load()
}

// TokensOfOwner enumerates the owner's credit ids in ledger order, snapshot
// at call time. Pure query.
func (l *Ledger) TokensOfOwner(ctx context.Context, owner domain.Address) ([]domain.CreditID, error) {
	return l.store.ListByOwner(ctx, owner)
}

// Get returns one credit with its certification record. Pure query.
func (l *Ledger) Get(ctx context.Context, id domain.CreditID) (Credit, error) {
	return l.getCredit(ctx, id)
}

// HashConsumed reports whether a certification hash was already used.
// Pure query.
func (l *Ledger) HashConsumed(ctx context.Context, hash domain.CertHash) (bool, error) {
	return l.hashes.Consumed(ctx, hash)
}

func (l *Ledger) setPaused(ctx context.Context, caller domain.Address, paused bool) error {
	if caller.IsZero() {
		return ledger.ErrZeroIdentity
	}
	return l.tx.RunInTx(ctx, func(ctx context.Context) error {
		held, err := l.roles.HasRole(ctx, caller, domain.RoleMainAdmin)
		if err != nil {
			return err
		}
		if !held {
			return ledger.ErrInsufficientCapability
		}
		if err := l.sink.Emit(ctx, events.Event{
			Type:      events.TypePauseChanged,
			Timestamp: requestcontext.Now(ctx),
			Actor:     caller.String(),
			Paused:    paused,
		}); err != nil {
			return err
		}
		l.paused.Store(paused)
		l.metrics.SetPaused(paused)
		l.logger.InfoContext(ctx, "pause state changed", "paused", paused, "by", caller.String())
		return nil
	})
}

func (l *Ledger) getCredit(ctx context.Context, id domain.CreditID) (Credit, error) {
	credit, err := l.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Credit{}, ledger.ErrUnknownCredit
	}
	return credit, err
}
