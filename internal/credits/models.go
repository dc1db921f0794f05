package credits

import (
	"time"

	"h2ledger/pkg/domain"
)

// CertificationRecord is stamped onto every credit at mint time and never
// mutated. One certification covers a whole batch, so all credits of a batch
// share the same certifier and hash.
type CertificationRecord struct {
	Producer  domain.Address
	Certifier domain.Address
	CertHash  domain.CertHash
	Metadata  string
	CreatedAt time.Time
}

// Credit is one kilogram of certified hydrogen. State machine:
// nonexistent -> minted -> (optionally) retired; retirement is terminal and
// freezes ownership while keeping the credit enumerable.
type Credit struct {
	ID            domain.CreditID
	Owner         domain.Address
	Retired       bool
	RetiredBy     domain.Address
	RetiredAt     *time.Time
	Certification CertificationRecord
}
