package identity

import (
	"bytes"
	"errors"
	"testing"
)

func testSeed(b byte) Seed {
	var s Seed
	for i := range s {
		s[i] = b + byte(i)
	}
	return s
}

func TestGenerateDeterministic(t *testing.T) {
	seed := testSeed(1)
	k1, err := Generate(seed)
	if err != nil {
		t.Fatalf("generate 1 failed: %v", err)
	}
	k2, err := Generate(seed)
	if err != nil {
		t.Fatalf("generate 2 failed: %v", err)
	}
	if !bytes.Equal(k1.SecretBytes(), k2.SecretBytes()) {
		t.Fatal("secret keys should be deterministic")
	}
	if !k1.Public().Equal(k2.Public()) {
		t.Fatal("public keys should be deterministic")
	}
}

func TestGenerateDomainSeparatesSubKeys(t *testing.T) {
	kp, err := Generate(testSeed(9))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if bytes.Equal(kp.Primary.SecretKey, kp.Secondary.SecretKey) {
		t.Fatal("primary and secondary secrets must differ")
	}
	if len(kp.Primary.PublicKey) != PrimaryPublicKeySize {
		t.Fatalf("unexpected primary public key size: %d", len(kp.Primary.PublicKey))
	}
	if len(kp.Secondary.PublicKey) != SecondaryPublicKeySize {
		t.Fatalf("unexpected secondary public key size: %d", len(kp.Secondary.PublicKey))
	}

	other, err := Generate(testSeed(10))
	if err != nil {
		t.Fatalf("generate other failed: %v", err)
	}
	if kp.Public().Equal(other.Public()) {
		t.Fatal("distinct seeds should yield distinct identities")
	}
}

func TestSignVerifyRoundtrip(t *testing.T) {
	kp, err := Generate(testSeed(3))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, msg := range [][]byte{nil, []byte(""), []byte("hello"), bytes.Repeat([]byte{0xAB}, 4096)} {
		sig, err := Sign(kp, msg)
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		if !Verify(kp.Public(), msg, sig) {
			t.Fatalf("signature over %d bytes should verify", len(msg))
		}
	}
}

func TestSignDeterministic(t *testing.T) {
	kp, err := Generate(testSeed(4))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	a, err := Sign(kp, []byte("msg"))
	if err != nil {
		t.Fatalf("sign a failed: %v", err)
	}
	b, err := Sign(kp, []byte("msg"))
	if err != nil {
		t.Fatalf("sign b failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("signatures should be deterministic")
	}
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	kp, err := Generate(testSeed(5))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	msg := []byte("transfer 10 XYL")
	sig, err := Sign(kp, msg)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	flippedMsg := append([]byte(nil), msg...)
	flippedMsg[0] ^= 0x01
	if Verify(kp.Public(), flippedMsg, sig) {
		t.Fatal("flipped message must not verify")
	}

	raw := sig.Bytes()
	for _, idx := range []int{0, PrimarySignatureSize - 1, PrimarySignatureSize, len(raw) - 1} {
		tampered := append([]byte(nil), raw...)
		tampered[idx] ^= 0x80
		parsed, err := ParseHybridSignature(tampered)
		if err != nil {
			t.Fatalf("parse tampered failed: %v", err)
		}
		if Verify(kp.Public(), msg, parsed) {
			t.Fatalf("bit flip at %d must not verify", idx)
		}
	}
}

func TestVerifyRequiresBothSubSignatures(t *testing.T) {
	kp, err := Generate(testSeed(6))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	other, err := Generate(testSeed(7))
	if err != nil {
		t.Fatalf("generate other failed: %v", err)
	}
	msg := []byte("and-composition")
	sig, _ := Sign(kp, msg)
	otherSig, _ := Sign(other, msg)

	mixedPrimary := HybridSignature{Primary: sig.Primary, Secondary: otherSig.Secondary}
	if Verify(kp.Public(), msg, mixedPrimary) {
		t.Fatal("valid primary alone must not verify")
	}
	mixedSecondary := HybridSignature{Primary: otherSig.Primary, Secondary: sig.Secondary}
	if Verify(kp.Public(), msg, mixedSecondary) {
		t.Fatal("valid secondary alone must not verify")
	}
}

func TestVerifyMalformedInputsReturnFalse(t *testing.T) {
	kp, err := Generate(testSeed(8))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	msg := []byte("x")
	sig, _ := Sign(kp, msg)

	cases := []struct {
		name string
		pub  HybridPublicKey
		sig  HybridSignature
	}{
		{"empty signature", kp.Public(), HybridSignature{}},
		{"short primary", kp.Public(), HybridSignature{Primary: sig.Primary[:10], Secondary: sig.Secondary}},
		{"long secondary", kp.Public(), HybridSignature{Primary: sig.Primary, Secondary: append(sig.Secondary, 0)}},
		{"empty public key", HybridPublicKey{}, sig},
		{"zero secondary key", HybridPublicKey{Primary: kp.Primary.PublicKey, Secondary: make([]byte, SecondaryPublicKeySize)}, sig},
	}
	for _, tc := range cases {
		if Verify(tc.pub, msg, tc.sig) {
			t.Fatalf("%s: expected verification failure", tc.name)
		}
	}
}

func TestSignRejectsMalformedKeypair(t *testing.T) {
	if _, err := Sign(nil, []byte("m")); !errors.Is(err, ErrInvalidKeypair) {
		t.Fatalf("expected ErrInvalidKeypair, got %v", err)
	}
	if _, err := Sign(&HybridKeypair{}, []byte("m")); !errors.Is(err, ErrInvalidKeypair) {
		t.Fatalf("expected ErrInvalidKeypair, got %v", err)
	}
}

func TestWireFormsRoundtrip(t *testing.T) {
	kp, err := Generate(testSeed(11))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	pub, err := ParseHybridPublicKey(kp.Public().Bytes())
	if err != nil {
		t.Fatalf("parse public key failed: %v", err)
	}
	if !pub.Equal(kp.Public()) {
		t.Fatal("public key wire form mismatch")
	}
	if _, err := ParseHybridPublicKey([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
	if _, err := ParseHybridSignature(make([]byte, HybridSignatureSize-1)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	rebuilt, err := KeypairFromSecret(kp.SecretBytes())
	if err != nil {
		t.Fatalf("keypair from secret failed: %v", err)
	}
	if !rebuilt.Public().Equal(kp.Public()) {
		t.Fatal("public key must be a function of the secret key")
	}
}
