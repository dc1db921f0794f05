package certification

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"h2ledger/pkg/domain"
)

// Sign produces the certifier signature over (producer, amount, certHash)
// with a hex-encoded secp256k1 private key. Used by the certsign CLI and by
// tests; the production signing happens in the certifier's own wallet.
func Sign(producer domain.Address, amount uint64, certHash domain.CertHash, privateKeyHex string) ([]byte, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	sig, err := crypto.Sign(SignedDigest(producer, amount, certHash), key)
	if err != nil {
		return nil, fmt.Errorf("sign certification: %w", err)
	}
	return sig, nil
}

// AddressOfKey derives the ledger address for a hex-encoded private key.
func AddressOfKey(privateKeyHex string) (domain.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("parse private key: %w", err)
	}
	return domain.AddressFromBytes(crypto.PubkeyToAddress(key.PublicKey).Bytes()), nil
}
