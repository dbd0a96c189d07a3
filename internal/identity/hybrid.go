package identity

import (
	"crypto/ed25519"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

var (
	ErrInvalidKeypair   = errors.New("invalid hybrid keypair")
	ErrInvalidPublicKey = errors.New("invalid hybrid public key")
	ErrInvalidSignature = errors.New("invalid hybrid signature encoding")
)

var secondarySigningContext = []byte("xcc-hybrid-v1")

// Generate derives both sub-keypairs from seed. Each sub-scheme gets its own
// HKDF label so neither derivation reveals the other.
func Generate(seed Seed) (*HybridKeypair, error) {
	primarySecret, err := hkdfExpand(seed[:], hkdfInfoPrimary, schemeSeedSize)
	if err != nil {
		return nil, fmt.Errorf("derive primary key: %w", err)
	}
	secondarySecret, err := hkdfExpand(seed[:], hkdfInfoSecondary, schemeSeedSize)
	if err != nil {
		return nil, fmt.Errorf("derive secondary key: %w", err)
	}

	primaryPub, err := primaryPublicKey(primarySecret)
	if err != nil {
		return nil, err
	}
	secondaryPub, err := secondaryPublicKey(secondarySecret)
	if err != nil {
		return nil, err
	}

	return &HybridKeypair{
		Primary:   Keypair{SecretKey: primarySecret, PublicKey: primaryPub},
		Secondary: Keypair{SecretKey: secondarySecret, PublicKey: secondaryPub},
	}, nil
}

// Public returns a copy of the public halves.
func (kp *HybridKeypair) Public() HybridPublicKey {
	if kp == nil {
		return HybridPublicKey{}
	}
	return HybridPublicKey{
		Primary:   append([]byte(nil), kp.Primary.PublicKey...),
		Secondary: append([]byte(nil), kp.Secondary.PublicKey...),
	}
}

// SecretBytes is primary secret followed by secondary secret.
func (kp *HybridKeypair) SecretBytes() []byte {
	if kp == nil {
		return nil
	}
	out := make([]byte, 0, HybridSecretKeySize)
	out = append(out, kp.Primary.SecretKey...)
	return append(out, kp.Secondary.SecretKey...)
}

func (kp *HybridKeypair) Wipe() {
	if kp == nil {
		return
	}
	zeroBytes(kp.Primary.SecretKey)
	zeroBytes(kp.Secondary.SecretKey)
}

// Sign produces one signature per sub-scheme over msg. Both schemes sign
// deterministically, so equal inputs give equal signatures.
func Sign(kp *HybridKeypair, msg []byte) (HybridSignature, error) {
	if kp == nil ||
		len(kp.Primary.SecretKey) != schemeSeedSize ||
		len(kp.Secondary.SecretKey) != schemeSeedSize {
		return HybridSignature{}, ErrInvalidKeypair
	}

	primary := ed25519.Sign(ed25519.NewKeyFromSeed(kp.Primary.SecretKey), msg)

	var secondarySeed [mldsa65.SeedSize]byte
	copy(secondarySeed[:], kp.Secondary.SecretKey)
	_, sk := mldsa65.NewKeyFromSeed(&secondarySeed)
	zeroBytes(secondarySeed[:])
	secondary := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(sk, msg, secondarySigningContext, false, secondary); err != nil {
		return HybridSignature{}, fmt.Errorf("secondary sign: %w", err)
	}

	return HybridSignature{Primary: primary, Secondary: secondary}, nil
}

// Verify accepts sig only if both sub-signatures verify. Malformed keys or
// signatures are rejected, never reported as errors.
func Verify(pub HybridPublicKey, msg []byte, sig HybridSignature) bool {
	if len(pub.Primary) != PrimaryPublicKeySize || len(pub.Secondary) != SecondaryPublicKeySize {
		return false
	}
	if len(sig.Primary) != PrimarySignatureSize || len(sig.Secondary) != SecondarySignatureSize {
		return false
	}

	primaryOK := ed25519.Verify(ed25519.PublicKey(pub.Primary), msg, sig.Primary)

	var secondaryKey mldsa65.PublicKey
	if err := secondaryKey.UnmarshalBinary(pub.Secondary); err != nil {
		return false
	}
	secondaryOK := mldsa65.Verify(&secondaryKey, msg, secondarySigningContext, sig.Secondary)

	return primaryOK && secondaryOK
}

func (p HybridPublicKey) Bytes() []byte {
	out := make([]byte, 0, len(p.Primary)+len(p.Secondary))
	out = append(out, p.Primary...)
	return append(out, p.Secondary...)
}

func (p HybridPublicKey) Equal(other HybridPublicKey) bool {
	return subtle.ConstantTimeCompare(p.Bytes(), other.Bytes()) == 1
}

func ParseHybridPublicKey(b []byte) (HybridPublicKey, error) {
	if len(b) != HybridPublicKeySize {
		return HybridPublicKey{}, fmt.Errorf("%w: size %d", ErrInvalidPublicKey, len(b))
	}
	return HybridPublicKey{
		Primary:   append([]byte(nil), b[:PrimaryPublicKeySize]...),
		Secondary: append([]byte(nil), b[PrimaryPublicKeySize:]...),
	}, nil
}

func (s HybridSignature) Bytes() []byte {
	out := make([]byte, 0, len(s.Primary)+len(s.Secondary))
	out = append(out, s.Primary...)
	return append(out, s.Secondary...)
}

func ParseHybridSignature(b []byte) (HybridSignature, error) {
	if len(b) != HybridSignatureSize {
		return HybridSignature{}, fmt.Errorf("%w: size %d", ErrInvalidSignature, len(b))
	}
	return HybridSignature{
		Primary:   append([]byte(nil), b[:PrimarySignatureSize]...),
		Secondary: append([]byte(nil), b[PrimarySignatureSize:]...),
	}, nil
}

// KeypairFromSecret rebuilds a hybrid keypair from SecretBytes output.
func KeypairFromSecret(secret []byte) (*HybridKeypair, error) {
	if len(secret) != HybridSecretKeySize {
		return nil, fmt.Errorf("%w: secret size %d", ErrInvalidKeypair, len(secret))
	}
	primarySecret := append([]byte(nil), secret[:schemeSeedSize]...)
	secondarySecret := append([]byte(nil), secret[schemeSeedSize:]...)
	primaryPub, err := primaryPublicKey(primarySecret)
	if err != nil {
		return nil, err
	}
	secondaryPub, err := secondaryPublicKey(secondarySecret)
	if err != nil {
		return nil, err
	}
	return &HybridKeypair{
		Primary:   Keypair{SecretKey: primarySecret, PublicKey: primaryPub},
		Secondary: Keypair{SecretKey: secondarySecret, PublicKey: secondaryPub},
	}, nil
}

func primaryPublicKey(secret []byte) ([]byte, error) {
	if len(secret) != ed25519.SeedSize {
		return nil, ErrInvalidKeypair
	}
	priv := ed25519.NewKeyFromSeed(secret)
	defer zeroBytes(priv)
	return append([]byte(nil), priv.Public().(ed25519.PublicKey)...), nil
}

func secondaryPublicKey(secret []byte) ([]byte, error) {
	if len(secret) != mldsa65.SeedSize {
		return nil, ErrInvalidKeypair
	}
	var seed [mldsa65.SeedSize]byte
	copy(seed[:], secret)
	defer zeroBytes(seed[:])
	pk, _ := mldsa65.NewKeyFromSeed(&seed)
	raw, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode secondary public key: %w", err)
	}
	return raw, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
