// Command certsign produces a certifier signature for a production claim.
// It is an operator tool: given a city admin's private key, the producer
// address, the amount, and either a precomputed certification hash or raw
// claim metadata, it prints the hash and the signature to pass to the mint
// endpoint.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"h2ledger/internal/certification"
	"h2ledger/pkg/domain"
)

func main() {
	var (
		keyHex   = flag.String("key", "", "certifier secp256k1 private key (hex)")
		producer = flag.String("producer", "", "producer address (0x...)")
		amount   = flag.Uint64("amount", 0, "credits to certify (kg of hydrogen)")
		hashHex  = flag.String("hash", "", "certification hash (0x...); derived from -metadata when empty")
		metadata = flag.String("metadata", "", "production claim metadata used to derive the hash")
	)
	flag.Parse()

	if err := run(*keyHex, *producer, *amount, *hashHex, *metadata); err != nil {
		fmt.Fprintln(os.Stderr, "certsign:", err)
		os.Exit(1)
	}
}

func run(keyHex, producerHex string, amount uint64, hashHex, metadata string) error {
	if keyHex == "" {
		return fmt.Errorf("-key is required")
	}
	producer, err := domain.ParseAddress(producerHex)
	if err != nil {
		return err
	}

	var certHash domain.CertHash
	if hashHex != "" {
		certHash, err = domain.ParseCertHash(hashHex)
		if err != nil {
			return err
		}
	} else {
		certHash = certification.ComputeCertificationHash(producer, amount, metadata)
	}

	sig, err := certification.Sign(producer, amount, certHash, keyHex)
	if err != nil {
		return err
	}
	certifier, err := certification.AddressOfKey(keyHex)
	if err != nil {
		return err
	}

	fmt.Println("certifier: ", certifier.String())
	fmt.Println("cert_hash: ", certHash.String())
	fmt.Println("signature: 0x" + hex.EncodeToString(sig))
	return nil
}
