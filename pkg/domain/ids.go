package domain

import (
	"encoding/hex"
	"strconv"

	dErrors "h2ledger/pkg/domain-errors"
)

// JurisdictionID is the opaque integer scoping an admin's authority
// (country/state/city), assigned at appointment time and never mutated.
// The appointment protocol does not validate nesting between levels.
type JurisdictionID uint64

// ParseJurisdictionID constructs a JurisdictionID from external input.
// Zero is a valid jurisdiction; only non-numeric input is rejected.
func ParseJurisdictionID(s string) (JurisdictionID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "jurisdiction id cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "jurisdiction id must be a non-negative integer")
	}
	return JurisdictionID(n), nil
}

// CreditID is the unique integral identifier of one credit (1 kg of certified
// hydrogen). Ids are allocated sequentially from 1; 0 is never a valid id.
type CreditID uint64

// ParseCreditID constructs a CreditID from external input.
func ParseCreditID(s string) (CreditID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "credit id must be a positive integer")
	}
	return CreditID(n), nil
}

// CertHashLength is the byte length of a certification hash.
const CertHashLength = 32

// CertHash is the content-addressed digest binding one off-chain production
// claim. Once consumed by a mint it can never be reused.
type CertHash [CertHashLength]byte

// ParseCertHash validates and returns a CertHash from its 0x-prefixed
// 64-hex-digit form.
func ParseCertHash(s string) (CertHash, error) {
	if len(s) != 2+CertHashLength*2 || (s[:2] != "0x" && s[:2] != "0X") {
		return CertHash{}, dErrors.New(dErrors.CodeInvalidInput, "certification hash must be a 0x-prefixed 32-byte hex string")
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return CertHash{}, dErrors.New(dErrors.CodeInvalidInput, "certification hash is not valid hex")
	}
	var h CertHash
	copy(h[:], raw)
	return h, nil
}

// CertHashFromBytes builds a CertHash from a raw 32-byte digest. Inputs of any
// other length yield the zero hash.
func CertHashFromBytes(b []byte) CertHash {
	var h CertHash
	if len(b) == CertHashLength {
		copy(h[:], b)
	}
	return h
}

// String returns the canonical lowercase 0x-prefixed form.
func (h CertHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns a copy of the raw digest bytes.
func (h CertHash) Bytes() []byte {
	b := make([]byte, CertHashLength)
	copy(b, h[:])
	return b
}

// IsZero reports whether the hash is all zeroes.
func (h CertHash) IsZero() bool {
	return h == CertHash{}
}
