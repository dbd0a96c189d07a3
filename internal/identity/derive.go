package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"lukechampine.com/blake3"
)

const (
	hkdfInfoPrimary   = "xcc/identity/primary/ed25519/v1"
	hkdfInfoSecondary = "xcc/identity/secondary/mldsa65/v1"
)

var ErrInvalidSeed = errors.New("invalid seed")

// DeriveMasterKey compresses an entropy buffer into a Seed. It is a pure
// function: the same entropy always yields the same Seed.
func DeriveMasterKey(entropy []byte) Seed {
	return Seed(blake3.Sum256(entropy))
}

func SeedFromBytes(b []byte) (Seed, error) {
	var s Seed
	if len(b) != SeedSize {
		return s, fmt.Errorf("%w: size %d", ErrInvalidSeed, len(b))
	}
	copy(s[:], b)
	return s, nil
}

func (s Seed) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

func (s *Seed) Wipe() {
	for i := range s {
		s[i] = 0
	}
}

// String never exposes seed material.
func (Seed) String() string {
	return "Seed(redacted)"
}

func (s Seed) GoString() string {
	return s.String()
}

func hkdfExpand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
