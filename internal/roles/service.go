package roles

import (
	"context"
	"errors"
	"log/slog"

	"h2ledger/internal/events"
	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	"h2ledger/pkg/requestcontext"
)

// EventSink receives the registry's role-granted observations.
type EventSink interface {
	Emit(ctx context.Context, event events.Event) error
}

// appointerOf is the strict capability chain: the key role may only be
// granted by an account holding the value role. Roles absent from the map
// (buyer) are self-registered.
var appointerOf = map[domain.Role]domain.Role{
	domain.RoleCountryAdmin: domain.RoleMainAdmin,
	domain.RoleStateAdmin:   domain.RoleCountryAdmin,
	domain.RoleCityAdmin:    domain.RoleStateAdmin,
	domain.RoleProducer:     domain.RoleCityAdmin,
	domain.RoleAuditor:      domain.RoleMainAdmin,
}

// Service is the role registry plus the appointment protocol. All grant paths
// funnel through one internal transition so the ordering rules cannot drift
// apart. Jurisdiction ids are recorded as given: the protocol does not check
// that a subordinate id nests under the appointer's own jurisdiction.
type Service struct {
	store   Store
	tx      ledger.Tx
	sink    EventSink
	logger  *slog.Logger
	metrics *Metrics
}

func NewService(store Store, tx ledger.Tx, sink EventSink, logger *slog.Logger, metrics *Metrics) *Service {
	return &Service{store: store, tx: tx, sink: sink, logger: logger, metrics: metrics}
}

// Bootstrap appoints the genesis main admin. Idempotent so restarts with the
// same configuration are safe.
func (s *Service) Bootstrap(ctx context.Context, genesis domain.Address) error {
	if genesis.IsZero() {
		return ledger.ErrZeroIdentity
	}
	held, err := s.store.Has(ctx, genesis, domain.RoleMainAdmin)
	if err != nil {
		return err
	}
	if held {
		return nil
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.record(ctx, Grant{
			Account:   genesis,
			Role:      domain.RoleMainAdmin,
			GrantedBy: domain.ZeroAddress,
			GrantedAt: requestcontext.Now(ctx),
		})
	})
}

// GrantCountryAdmin appoints a country admin. Caller must hold main_admin.
func (s *Service) GrantCountryAdmin(ctx context.Context, caller, account domain.Address, countryID domain.JurisdictionID) error {
	return s.appoint(ctx, caller, account, domain.RoleCountryAdmin, countryID)
}

// GrantStateAdmin appoints a state admin. Caller must hold country_admin.
func (s *Service) GrantStateAdmin(ctx context.Context, caller, account domain.Address, stateID domain.JurisdictionID) error {
	return s.appoint(ctx, caller, account, domain.RoleStateAdmin, stateID)
}

// GrantCityAdmin appoints a city admin. Caller must hold state_admin.
func (s *Service) GrantCityAdmin(ctx context.Context, caller, account domain.Address, cityID domain.JurisdictionID) error {
	return s.appoint(ctx, caller, account, domain.RoleCityAdmin, cityID)
}

// GrantProducer approves a producer. Caller must hold city_admin.
func (s *Service) GrantProducer(ctx context.Context, caller, account domain.Address) error {
	return s.appoint(ctx, caller, account, domain.RoleProducer, 0)
}

// RegisterAuditor registers an auditor. Reserved to main_admin.
func (s *Service) RegisterAuditor(ctx context.Context, caller, account domain.Address) error {
	return s.appoint(ctx, caller, account, domain.RoleAuditor, 0)
}

// RegisterBuyer self-registers the caller as a buyer. No appointer check,
// but duplicate registration still fails with AlreadyHeld.
func (s *Service) RegisterBuyer(ctx context.Context, account domain.Address) error {
	if account.IsZero() {
		return ledger.ErrZeroIdentity
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.record(ctx, Grant{
			Account:   account,
			Role:      domain.RoleBuyer,
			GrantedBy: account,
			GrantedAt: requestcontext.Now(ctx),
		})
	})
	if err != nil {
		s.metrics.IncRejected(domain.RoleBuyer.String(), reason(err))
		return err
	}
	return nil
}

// HasRole reports whether the account currently holds the role. Pure query.
func (s *Service) HasRole(ctx context.Context, account domain.Address, role domain.Role) (bool, error) {
	return s.store.Has(ctx, account, role)
}

// GrantsOf lists every grant the account holds, with jurisdictions.
func (s *Service) GrantsOf(ctx context.Context, account domain.Address) ([]Grant, error) {
	return s.store.ListByAccount(ctx, account)
}

// appoint runs one appointment transition: capability check, duplicate
// check, record, observe.
func (s *Service) appoint(ctx context.Context, caller, account domain.Address, role domain.Role, jurisdiction domain.JurisdictionID) error {
	if account.IsZero() || caller.IsZero() {
		return ledger.ErrZeroIdentity
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		held, err := s.store.Has(ctx, caller, appointerOf[role])
		if err != nil {
			return err
		}
		if !held {
			return ledger.ErrInsufficientCapability
		}
		return s.record(ctx, Grant{
			Account:      account,
			Role:         role,
			Jurisdiction: jurisdiction,
			GrantedBy:    caller,
			GrantedAt:    requestcontext.Now(ctx),
		})
	})
	if err != nil {
		s.metrics.IncRejected(role.String(), reason(err))
		return err
	}
	return nil
}

// record saves the grant and emits the observation inside the current
// transition. Save is atomic with the duplicate check at the store layer.
func (s *Service) record(ctx context.Context, grant Grant) error {
	if err := s.store.Save(ctx, grant); err != nil {
		return err
	}
	if err := s.sink.Emit(ctx, events.Event{
		Type:         events.TypeRoleGranted,
		Timestamp:    grant.GrantedAt,
		Account:      grant.Account.String(),
		Actor:        grant.GrantedBy.String(),
		Role:         grant.Role.String(),
		Jurisdiction: uint64(grant.Jurisdiction),
	}); err != nil {
		return err
	}
	s.metrics.IncGranted(grant.Role.String())
	s.logger.InfoContext(ctx, "role granted",
		"account", grant.Account.String(),
		"role", grant.Role.String(),
		"jurisdiction", uint64(grant.Jurisdiction),
		"granted_by", grant.GrantedBy.String(),
	)
	return nil
}

func reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ledger.ErrAlreadyHeld):
		return "already_held"
	case errors.Is(err, ledger.ErrInsufficientCapability):
		return "insufficient_capability"
	case errors.Is(err, ledger.ErrZeroIdentity):
		return "zero_identity"
	default:
		return "error"
	}
}
