// Package certification validates city-admin signatures over production
// claims. The signing convention matches the host ledger's standard signed
// message scheme: the packed payload (producer address, 32-byte big-endian
// amount, certification hash) is keccak-hashed, prefixed, hashed again, and
// signed with secp256k1.
package certification

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"h2ledger/pkg/domain"
)

// signedMessagePrefix is the host ledger's personal-message prefix for a
// 32-byte digest.
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// PayloadDigest returns the keccak digest of the packed certification
// payload (producer, amount, certificationHash).
func PayloadDigest(producer domain.Address, amount uint64, certHash domain.CertHash) []byte {
	buf := make([]byte, 0, domain.AddressLength+32+domain.CertHashLength)
	buf = append(buf, producer.Bytes()...)
	var amt [32]byte
	binary.BigEndian.PutUint64(amt[24:], amount)
	buf = append(buf, amt[:]...)
	buf = append(buf, certHash.Bytes()...)
	return crypto.Keccak256(buf)
}

// SignedDigest applies the signed-message prefix to the payload digest. This
// is the digest certifiers actually sign.
func SignedDigest(producer domain.Address, amount uint64, certHash domain.CertHash) []byte {
	return crypto.Keccak256([]byte(signedMessagePrefix), PayloadDigest(producer, amount, certHash))
}

// ComputeCertificationHash builds the content-addressed digest of one
// off-chain production claim. Producers and certifiers derive it the same
// way, so one claim maps to exactly one hash.
func ComputeCertificationHash(producer domain.Address, amount uint64, metadata string) domain.CertHash {
	buf := make([]byte, 0, domain.AddressLength+8+len(metadata))
	buf = append(buf, producer.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, amount)
	buf = append(buf, metadata...)
	return domain.CertHashFromBytes(crypto.Keccak256(buf))
}
