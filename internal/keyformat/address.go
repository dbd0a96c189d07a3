package keyformat

import (
	"crypto/subtle"
	"strings"

	"github.com/mr-tron/base58/base58"
	"lukechampine.com/blake3"
)

const (
	// DefaultNetworkVersion is the mainnet version byte ('X').
	DefaultNetworkVersion byte = 0x58

	DigestSize  = 32
	addressSize = 1 + DigestSize

	shortIDPrefix = "XYL-ADDR-"
	shortIDSize   = 20
)

type Address struct {
	Version byte
	Digest  [DigestSize]byte
}

// DeriveAddress hashes the public key material with BLAKE3-256 and tags it
// with the network version byte.
func DeriveAddress(version byte, publicKey []byte) Address {
	return Address{
		Version: version,
		Digest:  blake3.Sum256(publicKey),
	}
}

func (a Address) Bytes() []byte {
	out := make([]byte, 0, addressSize)
	out = append(out, a.Version)
	return append(out, a.Digest[:]...)
}

func (a Address) String() string {
	return base58.Encode(a.Bytes())
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Matches reports whether publicKey hashes to this address.
func (a Address) Matches(publicKey []byte) bool {
	want := DeriveAddress(a.Version, publicKey)
	return subtle.ConstantTimeCompare(a.Bytes(), want.Bytes()) == 1
}

func ParseAddress(s string) (Address, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, false
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != addressSize {
		return Address{}, false
	}
	var a Address
	a.Version = raw[0]
	copy(a.Digest[:], raw[1:])
	return a, true
}

// ShortID is a compact display label for a public key. It is not an address
// and must not be used to receive funds.
func ShortID(publicKey []byte) string {
	sum := blake3.Sum256(publicKey)
	return shortIDPrefix + base58.Encode(sum[:shortIDSize])
}
