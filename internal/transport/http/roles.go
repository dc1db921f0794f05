package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"h2ledger/internal/roles"
	"h2ledger/internal/transport/http/shared"
	"h2ledger/pkg/domain"
)

// RoleService defines the role registry operations the handler exposes.
type RoleService interface {
	GrantCountryAdmin(ctx context.Context, caller, account domain.Address, countryID domain.JurisdictionID) error
	GrantStateAdmin(ctx context.Context, caller, account domain.Address, stateID domain.JurisdictionID) error
	GrantCityAdmin(ctx context.Context, caller, account domain.Address, cityID domain.JurisdictionID) error
	GrantProducer(ctx context.Context, caller, account domain.Address) error
	RegisterAuditor(ctx context.Context, caller, account domain.Address) error
	RegisterBuyer(ctx context.Context, account domain.Address) error
	HasRole(ctx context.Context, account domain.Address, role domain.Role) (bool, error)
	GrantsOf(ctx context.Context, account domain.Address) ([]roles.Grant, error)
}

// RolesHandler exposes the appointment protocol over HTTP.
type RolesHandler struct {
	roles  RoleService
	logger *slog.Logger
}

func NewRolesHandler(roles RoleService, logger *slog.Logger) *RolesHandler {
	return &RolesHandler{roles: roles, logger: logger}
}

// Register mounts the role routes.
func (h *RolesHandler) Register(r chi.Router) {
	r.Post("/roles/country-admin", h.handleGrantCountryAdmin)
	r.Post("/roles/state-admin", h.handleGrantStateAdmin)
	r.Post("/roles/city-admin", h.handleGrantCityAdmin)
	r.Post("/roles/producer", h.handleGrantProducer)
	r.Post("/roles/auditor", h.handleRegisterAuditor)
	r.Post("/roles/buyer", h.handleRegisterBuyer)
	r.Get("/roles/{account}", h.handleListGrants)
	r.Get("/roles/{account}/{role}", h.handleHasRole)
}

type grantRequest struct {
	Account      string `json:"account"`
	Jurisdiction uint64 `json:"jurisdiction,omitempty"`
}

type grantResponse struct {
	Account      string    `json:"account"`
	Role         string    `json:"role"`
	Jurisdiction uint64    `json:"jurisdiction,omitempty"`
	GrantedBy    string    `json:"granted_by"`
	GrantedAt    time.Time `json:"granted_at"`
}

func (h *RolesHandler) handleGrantCountryAdmin(w http.ResponseWriter, r *http.Request) {
	h.appoint(w, r, func(ctx context.Context, caller, account domain.Address, jurisdiction domain.JurisdictionID) error {
		return h.roles.GrantCountryAdmin(ctx, caller, account, jurisdiction)
	})
}

func (h *RolesHandler) handleGrantStateAdmin(w http.ResponseWriter, r *http.Request) {
	h.appoint(w, r, func(ctx context.Context, caller, account domain.Address, jurisdiction domain.JurisdictionID) error {
		return h.roles.GrantStateAdmin(ctx, caller, account, jurisdiction)
	})
}

func (h *RolesHandler) handleGrantCityAdmin(w http.ResponseWriter, r *http.Request) {
	h.appoint(w, r, func(ctx context.Context, caller, account domain.Address, jurisdiction domain.JurisdictionID) error {
		return h.roles.GrantCityAdmin(ctx, caller, account, jurisdiction)
	})
}

func (h *RolesHandler) handleGrantProducer(w http.ResponseWriter, r *http.Request) {
	h.appoint(w, r, func(ctx context.Context, caller, account domain.Address, _ domain.JurisdictionID) error {
		return h.roles.GrantProducer(ctx, caller, account)
	})
}

func (h *RolesHandler) handleRegisterAuditor(w http.ResponseWriter, r *http.Request) {
	h.appoint(w, r, func(ctx context.Context, caller, account domain.Address, _ domain.JurisdictionID) error {
		return h.roles.RegisterAuditor(ctx, caller, account)
	})
}

// handleRegisterBuyer self-registers the calling account. No request body.
func (h *RolesHandler) handleRegisterBuyer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := shared.CallerAddress(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.roles.RegisterBuyer(ctx, caller); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) handleListGrants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := domain.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	grants, err := h.roles.GrantsOf(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "list grants failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, grantResponse{
			Account:      g.Account.String(),
			Role:         g.Role.String(),
			Jurisdiction: uint64(g.Jurisdiction),
			GrantedBy:    g.GrantedBy.String(),
			GrantedAt:    g.GrantedAt,
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"grants": out})
}

func (h *RolesHandler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := domain.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	held, err := h.roles.HasRole(ctx, account, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "role lookup failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"held": held})
}

// appoint is the common path for appointment endpoints: resolve the caller,
// decode the subject, delegate.
func (h *RolesHandler) appoint(w http.ResponseWriter, r *http.Request, grant func(ctx context.Context, caller, account domain.Address, jurisdiction domain.JurisdictionID) error) {
	ctx := r.Context()
	caller, err := shared.CallerAddress(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req grantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	account, err := domain.ParseAddress(req.Account)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := grant(ctx, caller, account, domain.JurisdictionID(req.Jurisdiction)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
