package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"h2ledger/internal/transport/http/shared"
	"h2ledger/pkg/domain"
)

// PauseService is the circuit breaker surface.
type PauseService interface {
	Pause(ctx context.Context, caller domain.Address) error
	Unpause(ctx context.Context, caller domain.Address) error
	Paused() bool
}

// AdminHandler exposes the emergency pause controls.
type AdminHandler struct {
	pause  PauseService
	logger *slog.Logger
}

func NewAdminHandler(pause PauseService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{pause: pause, logger: logger}
}

// Register mounts the admin routes.
func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/admin/pause", h.handlePause)
	r.Post("/admin/unpause", h.handleUnpause)
	r.Get("/admin/paused", h.handlePaused)
}

func (h *AdminHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, h.pause.Pause)
}

func (h *AdminHandler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, h.pause.Unpause)
}

func (h *AdminHandler) handlePaused(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"paused": h.pause.Paused()})
}

func (h *AdminHandler) setPaused(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, caller domain.Address) error) {
	ctx := r.Context()
	caller, err := shared.CallerAddress(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := set(ctx, caller); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
