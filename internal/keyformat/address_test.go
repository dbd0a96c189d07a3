package keyformat

import (
	"strings"
	"testing"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	pub := []byte("public-key-material")
	a := DeriveAddress(DefaultNetworkVersion, pub)
	b := DeriveAddress(DefaultNetworkVersion, pub)
	if a != b || a.String() != b.String() {
		t.Fatal("address derivation should be deterministic")
	}
	if a.Version != DefaultNetworkVersion {
		t.Fatalf("unexpected version byte: %x", a.Version)
	}
	if !a.Matches(pub) {
		t.Fatal("address should match its own public key")
	}
	if a.Matches([]byte("public-key-materiaL")) {
		t.Fatal("address must not match other key material")
	}
}

func TestDeriveAddressDistinctKeys(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 256; i++ {
		addr := DeriveAddress(DefaultNetworkVersion, []byte{byte(i), 0x01}).String()
		if _, dup := seen[addr]; dup {
			t.Fatalf("address collision at %d", i)
		}
		seen[addr] = struct{}{}
	}
}

func TestNetworkVersionChangesAddress(t *testing.T) {
	pub := []byte("pk")
	main := DeriveAddress(DefaultNetworkVersion, pub)
	test := DeriveAddress(0x54, pub)
	if main.String() == test.String() {
		t.Fatal("version byte must be part of the rendered address")
	}
	if main.Matches(pub) == false || test.Matches(pub) == false {
		t.Fatal("both addresses should match the key under their own version")
	}
}

func TestParseAddressRoundtrip(t *testing.T) {
	addr := DeriveAddress(DefaultNetworkVersion, []byte("pk"))
	got, ok := ParseAddress(" " + addr.String() + "\n")
	if !ok {
		t.Fatal("parse failed")
	}
	if got != addr {
		t.Fatal("address roundtrip mismatch")
	}
	if got.IsZero() {
		t.Fatal("parsed address should not be zero")
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	valid := DeriveAddress(DefaultNetworkVersion, []byte("pk")).String()
	cases := []string{
		"",
		"0OIl",
		valid[:len(valid)-3],
		valid + "2222",
		"XYL-PK-" + valid,
	}
	for _, s := range cases {
		if _, ok := ParseAddress(s); ok {
			t.Fatalf("expected parse failure for %q", s)
		}
	}
}

func TestShortID(t *testing.T) {
	id := ShortID([]byte("pk"))
	if !strings.HasPrefix(id, "XYL-ADDR-") {
		t.Fatalf("unexpected short id: %q", id)
	}
	if id != ShortID([]byte("pk")) {
		t.Fatal("short id should be deterministic")
	}
	if id == ShortID([]byte("pk2")) {
		t.Fatal("short id should differ for different keys")
	}
}
