// Package shared holds the JSON envelope and error translation used by every
// HTTP handler. Handlers return domain sentinels; this package is the single
// place those become status codes.
package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"h2ledger/internal/ledger"
	"h2ledger/pkg/domain"
	dErrors "h2ledger/pkg/domain-errors"
	"h2ledger/pkg/requestcontext"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into its HTTP status and JSON envelope. Ledger
// sentinels are coded first; anything uncoded falls through as an internal
// error without leaking the cause.
func WriteError(w http.ResponseWriter, err error) {
	coded := Coded(err)
	WriteJSON(w, dErrors.ToHTTPStatus(coded.Code), ErrorResponse{
		Error:   string(coded.Code),
		Message: coded.Message,
	})
}

// Coded maps a ledger sentinel to its coded form. Already-coded errors pass
// through unchanged.
func Coded(err error) *dErrors.Error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, ledger.ErrZeroIdentity),
		errors.Is(err, ledger.ErrInvalidAmount):
		return dErrors.Wrap(dErrors.CodeInvalidInput, err.Error(), err)
	case errors.Is(err, ledger.ErrInsufficientCapability),
		errors.Is(err, ledger.ErrNotOwner),
		errors.Is(err, ledger.ErrInvalidCertifierSignature):
		return dErrors.Wrap(dErrors.CodeForbidden, err.Error(), err)
	case errors.Is(err, ledger.ErrAlreadyHeld),
		errors.Is(err, ledger.ErrHashReused),
		errors.Is(err, ledger.ErrAlreadyRetired),
		errors.Is(err, ledger.ErrRetiredTransfer):
		return dErrors.Wrap(dErrors.CodeConflict, err.Error(), err)
	case errors.Is(err, ledger.ErrUnknownRecipient),
		errors.Is(err, ledger.ErrUnknownCredit):
		return dErrors.Wrap(dErrors.CodeNotFound, err.Error(), err)
	case errors.Is(err, ledger.ErrPaused):
		return dErrors.Wrap(dErrors.CodeUnavailable, err.Error(), err)
	default:
		return dErrors.New(dErrors.CodeInternal, "internal error")
	}
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "invalid request body", err)
	}
	return nil
}

// CallerAddress resolves the transaction sender asserted by the host
// environment (X-Caller, lifted into context by middleware).
func CallerAddress(ctx context.Context) (domain.Address, error) {
	raw := requestcontext.Caller(ctx)
	if raw == "" {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "missing X-Caller header")
	}
	return domain.ParseAddress(raw)
}
