package certification

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h2ledger/pkg/domain"
)

// fakeRoles answers role lookups from a fixed set of city admins.
type fakeRoles struct {
	cityAdmins map[domain.Address]bool
	err        error
}

func (f *fakeRoles) HasRole(_ context.Context, account domain.Address, role domain.Role) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return role == domain.RoleCityAdmin && f.cityAdmins[account], nil
}

func newSigner(t *testing.T) (string, domain.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hex.EncodeToString(crypto.FromECDSA(key))
	addr, err := AddressOfKey(keyHex)
	require.NoError(t, err)
	return keyHex, addr
}

func testProducer() domain.Address {
	addr, _ := domain.ParseAddress("0x00112233445566778899aabbccddeeff00112233")
	return addr
}

func TestSignAndRecoverRoundTrip(t *testing.T) {
	keyHex, signer := newSigner(t)
	producer := testProducer()
	certHash := ComputeCertificationHash(producer, 50, "plant-7 batch 2026-08")

	sig, err := Sign(producer, 50, certHash, keyHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	t.Run("recovers the signing address", func(t *testing.T) {
		recovered := RecoverSigner(producer, 50, certHash, sig)
		assert.Equal(t, signer, recovered)
	})

	t.Run("accepts the legacy 27/28 recovery id", func(t *testing.T) {
		legacy := make([]byte, len(sig))
		copy(legacy, sig)
		legacy[64] += 27
		recovered := RecoverSigner(producer, 50, certHash, legacy)
		assert.Equal(t, signer, recovered)
	})

	t.Run("tampered payload recovers a different signer", func(t *testing.T) {
		recovered := RecoverSigner(producer, 51, certHash, sig)
		assert.NotEqual(t, signer, recovered)
	})
}

// TestRecoverSigner_Malformed checks the fault-tolerant contract: malformed
// signatures yield the zero address, never a panic or an error.
func TestRecoverSigner_Malformed(t *testing.T) {
	producer := testProducer()
	certHash := ComputeCertificationHash(producer, 10, "claim")

	outOfRange := make([]byte, 65)
	outOfRange[64] = 5

	cases := []struct {
		name string
		sig  []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"too short", make([]byte, 64)},
		{"too long", make([]byte, 66)},
		{"zero bytes", make([]byte, 65)},
		{"recovery id out of range", outOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, RecoverSigner(producer, 10, certHash, tc.sig).IsZero())
		})
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	producer := testProducer()
	certHash := ComputeCertificationHash(producer, 25, "claim")

	cityKey, cityAdmin := newSigner(t)
	strangerKey, stranger := newSigner(t)
	roles := &fakeRoles{cityAdmins: map[domain.Address]bool{cityAdmin: true}}
	verifier := NewVerifier(roles)

	t.Run("valid city admin signature passes", func(t *testing.T) {
		sig, err := Sign(producer, 25, certHash, cityKey)
		require.NoError(t, err)

		signer, ok, err := verifier.Verify(ctx, producer, 25, certHash, sig)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, cityAdmin, signer)
	})

	t.Run("well-formed signature from a non-admin fails", func(t *testing.T) {
		sig, err := Sign(producer, 25, certHash, strangerKey)
		require.NoError(t, err)

		signer, ok, err := verifier.Verify(ctx, producer, 25, certHash, sig)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, stranger, signer)
	})

	t.Run("malformed signature fails without error", func(t *testing.T) {
		signer, ok, err := verifier.Verify(ctx, producer, 25, certHash, []byte("garbage"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, signer.IsZero())
	})

	t.Run("signature over different amount fails", func(t *testing.T) {
		sig, err := Sign(producer, 26, certHash, cityKey)
		require.NoError(t, err)

		_, ok, err := verifier.Verify(ctx, producer, 25, certHash, sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestComputeCertificationHash(t *testing.T) {
	producer := testProducer()

	t.Run("is deterministic", func(t *testing.T) {
		a := ComputeCertificationHash(producer, 100, "batch-1")
		b := ComputeCertificationHash(producer, 100, "batch-1")
		assert.Equal(t, a, b)
	})

	t.Run("differs on any input change", func(t *testing.T) {
		base := ComputeCertificationHash(producer, 100, "batch-1")
		assert.NotEqual(t, base, ComputeCertificationHash(producer, 101, "batch-1"))
		assert.NotEqual(t, base, ComputeCertificationHash(producer, 100, "batch-2"))
		other, _ := domain.ParseAddress("0xffffffffffffffffffffffffffffffffffffffff")
		assert.NotEqual(t, base, ComputeCertificationHash(other, 100, "batch-1"))
	})
}
