package identity

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDeriveMasterKeyDeterministic(t *testing.T) {
	entropy := []byte("test-entropy-material")
	if DeriveMasterKey(entropy) != DeriveMasterKey(entropy) {
		t.Fatal("master key derivation should be deterministic")
	}
	if DeriveMasterKey(entropy) == DeriveMasterKey([]byte("test-entropy-materiaL")) {
		t.Fatal("different entropy should yield different seeds")
	}
}

func TestSeedFromBytes(t *testing.T) {
	seed := testSeed(2)
	got, err := SeedFromBytes(seed.Bytes())
	if err != nil {
		t.Fatalf("seed from bytes failed: %v", err)
	}
	if got != seed {
		t.Fatal("seed roundtrip mismatch")
	}
	if _, err := SeedFromBytes(make([]byte, 31)); !errors.Is(err, ErrInvalidSeed) {
		t.Fatalf("expected ErrInvalidSeed, got %v", err)
	}
}

func TestSeedFormattingRedacts(t *testing.T) {
	seed := testSeed(0x41)
	for _, out := range []string{fmt.Sprint(seed), fmt.Sprintf("%v", seed), fmt.Sprintf("%#v", seed)} {
		if strings.Contains(out, "65") || !strings.Contains(out, "redacted") {
			t.Fatalf("seed formatting leaked material: %q", out)
		}
	}
}

func TestSeedWipe(t *testing.T) {
	seed := testSeed(1)
	seed.Wipe()
	if seed != (Seed{}) {
		t.Fatal("wipe should zero the seed")
	}
}

func TestMnemonicRoundtrip(t *testing.T) {
	seed := testSeed(0x30)
	mnemonic, err := seed.Mnemonic()
	if err != nil {
		t.Fatalf("mnemonic failed: %v", err)
	}
	if n := len(strings.Fields(mnemonic)); n != 24 {
		t.Fatalf("expected 24 words, got %d", n)
	}
	got, err := SeedFromMnemonic("  " + strings.ReplaceAll(mnemonic, " ", "   ") + "\n")
	if err != nil {
		t.Fatalf("seed from mnemonic failed: %v", err)
	}
	if !bytes.Equal(got.Bytes(), seed.Bytes()) {
		t.Fatal("mnemonic roundtrip mismatch")
	}
}

func TestSeedFromMnemonicRejectsInvalid(t *testing.T) {
	if _, err := SeedFromMnemonic("not a mnemonic"); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("expected ErrInvalidMnemonic, got %v", err)
	}
	short := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	if _, err := SeedFromMnemonic(short); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("expected ErrInvalidMnemonic for 12-word phrase, got %v", err)
	}
}
