package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names an observation emitted by the ledger core.
type Type string

const (
	TypeRoleGranted       Type = "role_granted"
	TypeCreditsIssued     Type = "credits_issued"
	TypeCreditTransferred Type = "credit_transferred"
	TypeCreditRetired     Type = "credit_retired"
	TypePauseChanged      Type = "pause_changed"
)

// Event is emitted from the ledger core to capture state transitions.
// Collaborators (audit export, off-chain mirrors) consume these with
// at-least-once delivery, so every event carries a stable ID for idempotent
// upsert on their side. Fields are populated per type; unused ones stay zero.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Account is the subject of the event: the newly appointed admin, the
	// producer credited, or the credit owner.
	Account string `json:"account,omitempty"`
	// Actor is who caused the transition: the appointing admin, the
	// transferring owner, the retiring caller, or the pausing main admin.
	Actor string `json:"actor,omitempty"`

	Role         string `json:"role,omitempty"`
	Jurisdiction uint64 `json:"jurisdiction,omitempty"`

	Amount   uint64 `json:"amount,omitempty"`
	FirstID  uint64 `json:"first_id,omitempty"`
	LastID   uint64 `json:"last_id,omitempty"`
	CreditID uint64 `json:"credit_id,omitempty"`
	CertHash string `json:"cert_hash,omitempty"`

	Paused bool `json:"paused,omitempty"`
}
