package wallet

import (
	"errors"
	"fmt"

	"xyllidium/xcc-wallet/internal/identity"
	"xyllidium/xcc-wallet/internal/keyformat"
	"xyllidium/xcc-wallet/pkg/models"
)

var ErrNilWallet = errors.New("wallet is not initialized")

// Wallet is a fully derived identity. It owns its seed and keypair; nothing
// is persisted unless Manager.Export is called.
type Wallet struct {
	seed    identity.Seed
	keys    *identity.HybridKeypair
	address keyformat.Address
}

func newWallet(seed identity.Seed, networkVersion byte) (*Wallet, error) {
	keys, err := identity.Generate(seed)
	if err != nil {
		return nil, fmt.Errorf("derive keypair: %w", err)
	}
	return &Wallet{
		seed:    seed,
		keys:    keys,
		address: keyformat.DeriveAddress(networkVersion, keys.Public().Bytes()),
	}, nil
}

func (w *Wallet) Address() keyformat.Address {
	return w.address
}

func (w *Wallet) PublicKey() identity.HybridPublicKey {
	return w.keys.Public()
}

func (w *Wallet) ShortID() string {
	return keyformat.ShortID(w.keys.Public().Bytes())
}

func (w *Wallet) EncodedPublicKey() string {
	return keyformat.EncodeKey(keyformat.Public, w.keys.Public().Bytes())
}

// EncodedSecretKey exports both sub-scheme secrets. Handle like the seed.
func (w *Wallet) EncodedSecretKey() string {
	secret := w.keys.SecretBytes()
	defer zeroBytes(secret)
	return keyformat.EncodeKey(keyformat.Secret, secret)
}

// MasterKey exports the seed in XYL-MK- form.
func (w *Wallet) MasterKey() string {
	return keyformat.EncodeKey(keyformat.Master, w.seed[:])
}

func (w *Wallet) Mnemonic() (string, error) {
	return w.seed.Mnemonic()
}

// Sign is a pass-through to the hybrid engine; it does not change the wallet.
func (w *Wallet) Sign(message []byte) (identity.HybridSignature, error) {
	if w == nil || w.keys == nil {
		return identity.HybridSignature{}, ErrNilWallet
	}
	return identity.Sign(w.keys, message)
}

func (w *Wallet) Verify(message []byte, sig identity.HybridSignature) bool {
	if w == nil || w.keys == nil {
		return false
	}
	return identity.Verify(w.keys.Public(), message, sig)
}

func (w *Wallet) Info() models.WalletInfo {
	return models.WalletInfo{
		Address:   w.address.String(),
		ShortID:   w.ShortID(),
		PublicKey: w.EncodedPublicKey(),
	}
}

// Wipe zeroes the seed and secret keys. The wallet is unusable afterwards.
func (w *Wallet) Wipe() {
	if w == nil {
		return
	}
	w.seed.Wipe()
	w.keys.Wipe()
	w.keys = nil
}

// VerifyWithAddress checks that pub hashes to addr and that sig is a valid
// hybrid signature over message under pub.
func VerifyWithAddress(addr keyformat.Address, pub identity.HybridPublicKey, message []byte, sig identity.HybridSignature) bool {
	if !addr.Matches(pub.Bytes()) {
		return false
	}
	return identity.Verify(pub, message, sig)
}

// ParsePublicKey decodes an XYL-PK- string into hybrid public key material.
func ParsePublicKey(encoded string) (identity.HybridPublicKey, bool) {
	key, ok := keyformat.DecodeKey(encoded)
	if !ok || key.Type != keyformat.Public {
		return identity.HybridPublicKey{}, false
	}
	pub, err := identity.ParseHybridPublicKey(key.Raw)
	if err != nil {
		return identity.HybridPublicKey{}, false
	}
	return pub, true
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
