package httptransport

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"h2ledger/internal/credits"
	"h2ledger/internal/transport/http/shared"
	"h2ledger/pkg/domain"
	dErrors "h2ledger/pkg/domain-errors"
)

// Minter drives certified issuance.
type Minter interface {
	MintWithCertification(ctx context.Context, producer domain.Address, amount uint64, certHash domain.CertHash, signature []byte, metadata string) (first, last domain.CreditID, err error)
}

// CreditService defines the credit ledger operations the handler exposes.
type CreditService interface {
	Transfer(ctx context.Context, caller, to domain.Address, id domain.CreditID) error
	Retire(ctx context.Context, caller domain.Address, id domain.CreditID) error
	TokensOfOwner(ctx context.Context, owner domain.Address) ([]domain.CreditID, error)
	Get(ctx context.Context, id domain.CreditID) (credits.Credit, error)
	HashConsumed(ctx context.Context, hash domain.CertHash) (bool, error)
}

// CreditsHandler exposes minting, transfer, retirement, and the read side of
// the credit ledger.
type CreditsHandler struct {
	minter Minter
	creds  CreditService
	logger *slog.Logger
}

func NewCreditsHandler(minter Minter, creds CreditService, logger *slog.Logger) *CreditsHandler {
	return &CreditsHandler{minter: minter, creds: creds, logger: logger}
}

// Register mounts the credit routes.
func (h *CreditsHandler) Register(r chi.Router) {
	r.Post("/credits/mint", h.handleMint)
	r.Post("/credits/{id}/transfer", h.handleTransfer)
	r.Post("/credits/{id}/retire", h.handleRetire)
	r.Get("/credits/{id}", h.handleGet)
	r.Get("/credits/owner/{account}", h.handleTokensOfOwner)
	r.Get("/certifications/{hash}", h.handleHashConsumed)
}

type mintRequest struct {
	Producer  string `json:"producer"`
	Amount    uint64 `json:"amount"`
	CertHash  string `json:"cert_hash"`
	Signature string `json:"signature"`
	Metadata  string `json:"metadata,omitempty"`
}

type mintResponse struct {
	FirstID uint64 `json:"first_id"`
	LastID  uint64 `json:"last_id"`
	Amount  uint64 `json:"amount"`
}

type transferRequest struct {
	To string `json:"to"`
}

type creditResponse struct {
	ID        uint64     `json:"id"`
	Owner     string     `json:"owner"`
	Retired   bool       `json:"retired"`
	RetiredBy string     `json:"retired_by,omitempty"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`

	Producer  string    `json:"producer"`
	Certifier string    `json:"certifier"`
	CertHash  string    `json:"cert_hash"`
	Metadata  string    `json:"metadata,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (h *CreditsHandler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req mintRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	producer, err := domain.ParseAddress(req.Producer)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	certHash, err := domain.ParseCertHash(req.CertHash)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	signature, err := decodeSignature(req.Signature)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	first, last, err := h.minter.MintWithCertification(ctx, producer, req.Amount, certHash, signature, req.Metadata)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, mintResponse{
		FirstID: uint64(first),
		LastID:  uint64(last),
		Amount:  req.Amount,
	})
}

func (h *CreditsHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := shared.CallerAddress(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	id, err := domain.ParseCreditID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req transferRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.creds.Transfer(ctx, caller, to, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CreditsHandler) handleRetire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := shared.CallerAddress(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	id, err := domain.ParseCreditID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.creds.Retire(ctx, caller, id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CreditsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseCreditID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	credit, err := h.creds.Get(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := creditResponse{
		ID:        uint64(credit.ID),
		Owner:     credit.Owner.String(),
		Retired:   credit.Retired,
		RetiredAt: credit.RetiredAt,
		Producer:  credit.Certification.Producer.String(),
		Certifier: credit.Certification.Certifier.String(),
		CertHash:  credit.Certification.CertHash.String(),
		Metadata:  credit.Certification.Metadata,
		IssuedAt:  credit.Certification.CreatedAt,
	}
	if credit.Retired {
		out.RetiredBy = credit.RetiredBy.String()
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *CreditsHandler) handleTokensOfOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := domain.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ids, err := h.creds.TokensOfOwner(ctx, owner)
	if err != nil {
		h.logger.ErrorContext(ctx, "owner enumeration failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"credits": out})
}

func (h *CreditsHandler) handleHashConsumed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash, err := domain.ParseCertHash(chi.URLParam(r, "hash"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	consumed, err := h.creds.HashConsumed(ctx, hash)
	if err != nil {
		h.logger.ErrorContext(ctx, "hash lookup failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"consumed": consumed})
}

// decodeSignature accepts the 65-byte r||s||v signature as hex, with or
// without a 0x prefix. Length is not checked here; the verifier treats any
// malformed signature as invalid rather than as a transport error.
func decodeSignature(raw string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	sig, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "signature is not valid hex")
	}
	return sig, nil
}
