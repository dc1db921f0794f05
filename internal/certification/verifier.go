package certification

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"

	"h2ledger/pkg/domain"
)

// sigLength is the expected r||s||v signature length.
const sigLength = 65

// RoleChecker is the verifier's view of the role registry.
type RoleChecker interface {
	HasRole(ctx context.Context, account domain.Address, role domain.Role) (bool, error)
}

// Verifier recovers the signer of a certification and checks the city-admin
// capability. Invalid certifications are an expected outcome, not an
// exceptional one: malformed signatures yield (zero, false), never an error.
type Verifier struct {
	roles RoleChecker
}

func NewVerifier(roles RoleChecker) *Verifier {
	return &Verifier{roles: roles}
}

// Verify recovers the signing identity from signature over
// (producer, amount, certHash) and reports whether it currently holds
// city_admin. The returned address is the recovered signer (zero when the
// signature is malformed). The error is reserved for registry lookup
// failures; signature problems never produce one.
func (v *Verifier) Verify(ctx context.Context, producer domain.Address, amount uint64, certHash domain.CertHash, signature []byte) (domain.Address, bool, error) {
	signer := RecoverSigner(producer, amount, certHash, signature)
	if signer.IsZero() {
		return domain.ZeroAddress, false, nil
	}
	held, err := v.roles.HasRole(ctx, signer, domain.RoleCityAdmin)
	if err != nil {
		return signer, false, err
	}
	return signer, held, nil
}

// RecoverSigner extracts the signing address from a 65-byte r||s||v
// signature over the certification payload. Both the raw recovery id (0/1)
// and the legacy 27/28 form are accepted. Any malformed input yields the
// zero address.
func RecoverSigner(producer domain.Address, amount uint64, certHash domain.CertHash, signature []byte) domain.Address {
	if len(signature) != sigLength {
		return domain.ZeroAddress
	}
	sig := make([]byte, sigLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return domain.ZeroAddress
	}

	pub, err := crypto.SigToPub(SignedDigest(producer, amount, certHash), sig)
	if err != nil {
		return domain.ZeroAddress
	}
	return domain.AddressFromBytes(crypto.PubkeyToAddress(*pub).Bytes())
}
