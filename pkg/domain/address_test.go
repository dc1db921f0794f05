package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "h2ledger/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the trust-boundary parsing rule:
// addresses are 0x-prefixed 20-byte hex strings, case-insensitive on input,
// canonical lowercase on output.
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("ab", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("ab", 19))
		require.Error(t, err)

		_, err = ParseAddress("0x" + strings.Repeat("ab", 21))
		require.Error(t, err)
	})

	t.Run("rejects non-hex digits", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("zz", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts and round-trips a valid address", func(t *testing.T) {
		raw := "0x00112233445566778899aabbccddeeff00112233"
		addr, err := ParseAddress(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, addr.String())
	})

	t.Run("normalizes uppercase hex", func(t *testing.T) {
		addr, err := ParseAddress("0x00112233445566778899AABBCCDDEEFF00112233")
		require.NoError(t, err)
		assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233", addr.String())
	})

	t.Run("zero address parses but reports IsZero", func(t *testing.T) {
		addr, err := ParseAddress("0x" + strings.Repeat("00", 20))
		require.NoError(t, err)
		assert.True(t, addr.IsZero())
		assert.Equal(t, ZeroAddress, addr)
	})
}

func TestAddressFromBytes(t *testing.T) {
	t.Run("copies exactly 20 bytes", func(t *testing.T) {
		raw := make([]byte, AddressLength)
		raw[0] = 0xff
		addr := AddressFromBytes(raw)
		assert.Equal(t, byte(0xff), addr.Bytes()[0])
		assert.False(t, addr.IsZero())
	})

	t.Run("any other length yields the zero address", func(t *testing.T) {
		assert.True(t, AddressFromBytes(nil).IsZero())
		assert.True(t, AddressFromBytes(make([]byte, 19)).IsZero())
		assert.True(t, AddressFromBytes(make([]byte, 32)).IsZero())
	})

	t.Run("Bytes returns a copy", func(t *testing.T) {
		addr := AddressFromBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20})
		b := addr.Bytes()
		b[0] = 0xff
		assert.Equal(t, byte(1), addr.Bytes()[0])
	})
}
