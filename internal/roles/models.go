package roles

import (
	"time"

	"h2ledger/pkg/domain"
)

// Grant records one role held by one account. Admin grants carry the
// jurisdiction fixed at appointment time; participant grants leave it zero.
// Grants are never revoked in the current design.
type Grant struct {
	Account      domain.Address
	Role         domain.Role
	Jurisdiction domain.JurisdictionID
	GrantedBy    domain.Address
	GrantedAt    time.Time
}
