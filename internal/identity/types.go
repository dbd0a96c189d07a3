package identity

import (
	"crypto/ed25519"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

const (
	SeedSize       = 32
	schemeSeedSize = 32

	PrimaryPublicKeySize   = ed25519.PublicKeySize
	PrimarySignatureSize   = ed25519.SignatureSize
	SecondaryPublicKeySize = mldsa65.PublicKeySize
	SecondarySignatureSize = mldsa65.SignatureSize

	HybridPublicKeySize = PrimaryPublicKeySize + SecondaryPublicKeySize
	HybridSecretKeySize = 2 * schemeSeedSize
	HybridSignatureSize = PrimarySignatureSize + SecondarySignatureSize
)

// Seed is the root secret every key of a wallet is derived from.
type Seed [SeedSize]byte

// Keypair holds one sub-scheme key. SecretKey is the 32-byte scheme seed;
// PublicKey is derived from it by the scheme's own key generation.
type Keypair struct {
	SecretKey []byte
	PublicKey []byte
}

// HybridKeypair is the Ed25519 (primary) and ML-DSA-65 (secondary) pair
// derived from a single Seed.
type HybridKeypair struct {
	Primary   Keypair
	Secondary Keypair
}

type HybridPublicKey struct {
	Primary   []byte
	Secondary []byte
}

type HybridSignature struct {
	Primary   []byte
	Secondary []byte
}
