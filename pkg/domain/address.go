package domain

import (
	"encoding/hex"
	"strings"

	dErrors "h2ledger/pkg/domain-errors"
)

// AddressLength is the byte length of a ledger account address.
const AddressLength = 20

// Address identifies an account on the ledger. It is a domain primitive:
// construct via ParseAddress at trust boundaries so the hex format and length
// are enforced once; direct casting bypasses validation.
type Address [AddressLength]byte

// ZeroAddress is the null identity. It can never hold roles or own credits.
var ZeroAddress = Address{}

// ParseAddress validates and returns an Address from external input.
// Accepts the canonical 0x-prefixed 40-hex-digit form, case-insensitive.
//
// Errors: returns CodeInvalidInput for empty, malformed, or wrong-length
// input; no other errors are expected.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	if len(raw) != AddressLength {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// AddressFromBytes builds an Address from a raw 20-byte slice. Inputs of any
// other length yield the zero address, matching the fault-tolerant behavior
// expected from signature recovery.
func AddressFromBytes(b []byte) Address {
	var a Address
	if len(b) == AddressLength {
		copy(a[:], b)
	}
	return a
}

// String returns the canonical lowercase 0x-prefixed form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
