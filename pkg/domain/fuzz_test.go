//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseAddress checks that address parsing never panics on arbitrary
// input and that accepted values round-trip through their canonical form.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x00112233445566778899aabbccddeeff00112233")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("not-an-address")
	f.Add("0x'; DROP TABLE credits;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseAddress(addr.String())
		if err2 != nil {
			t.Errorf("accepted address failed round-trip: %v", err2)
		}
		if roundTrip != addr {
			t.Error("round-trip changed address value")
		}
	})
}

// FuzzParseCertHash checks the same invariants for certification hashes.
func FuzzParseCertHash(f *testing.F) {
	f.Add("")
	f.Add("0x0badc0de0badc0de0badc0de0badc0de0badc0de0badc0de0badc0de0badc0de")
	f.Add("0X0BADC0DE0BADC0DE0BADC0DE0BADC0DE0BADC0DE0BADC0DE0BADC0DE0BADC0DE")
	f.Add("0x")

	f.Fuzz(func(t *testing.T, input string) {
		h, err := ParseCertHash(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseCertHash(h.String())
		if err2 != nil {
			t.Errorf("accepted hash failed round-trip: %v", err2)
		}
		if roundTrip != h {
			t.Error("round-trip changed hash value")
		}
	})
}
