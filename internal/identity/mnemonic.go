package identity

import (
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Mnemonic renders the seed as a 24-word BIP-39 phrase for offline backup.
func (s Seed) Mnemonic() (string, error) {
	return bip39.NewMnemonic(s[:])
}

func SeedFromMnemonic(mnemonic string) (Seed, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return Seed{}, ErrInvalidMnemonic
	}
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return Seed{}, ErrInvalidMnemonic
	}
	defer zeroBytes(entropy)
	if len(entropy) != SeedSize {
		return Seed{}, ErrInvalidMnemonic
	}
	return SeedFromBytes(entropy)
}
