package config

import (
	"os"
	"path/filepath"
	"testing"

	"xyllidium/xcc-wallet/internal/keyformat"
	"xyllidium/xcc-wallet/internal/securestore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"XCC_NETWORK_VERSION", "XCC_KEYSTORE_DIR", "XCC_KDF_TIME", "XCC_KDF_MEMORY_KB",
		"XCC_KDF_THREADS", "XCC_UNLOCK_RPS", "XCC_UNLOCK_BURST", "XCC_LOG_LEVEL", "XCC_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	clearEnv(t)
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	want := Default()
	if cfg != want {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Wallet.NetworkVersion != keyformat.DefaultNetworkVersion {
		t.Fatalf("unexpected network version: %x", cfg.Wallet.NetworkVersion)
	}
	if cfg.KDF != securestore.DefaultParams() {
		t.Fatalf("unexpected kdf params: %+v", cfg.KDF)
	}
}

func TestLoadFromPathMergesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wallet.yaml")
	data := []byte(`
wallet:
  networkVersion: 0x54
  keystoreDir: /var/lib/xcc
kdf:
  time: 3
  memoryKB: 1024
unlock:
  burst: 5
log:
  format: text
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg := LoadFromPath(path)
	if cfg.Wallet.NetworkVersion != 0x54 {
		t.Fatalf("unexpected network version: %x", cfg.Wallet.NetworkVersion)
	}
	if cfg.Wallet.KeystoreDir != "/var/lib/xcc" {
		t.Fatalf("unexpected keystore dir: %q", cfg.Wallet.KeystoreDir)
	}
	if cfg.KDF.Time != 3 {
		t.Fatalf("unexpected kdf time: %d", cfg.KDF.Time)
	}
	if cfg.KDF.MemoryKB != securestore.MinParams.MemoryKB {
		t.Fatalf("kdf memory should be clamped to floor, got %d", cfg.KDF.MemoryKB)
	}
	if cfg.Unlock.Burst != 5 || cfg.Unlock.AttemptsPerSecond != Default().Unlock.AttemptsPerSecond {
		t.Fatalf("unexpected unlock config: %+v", cfg.Unlock)
	}
	if cfg.Log.Format != "text" || cfg.Log.Level != "info" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadFromPathCapsKDFCeiling(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wallet.yaml")
	data := []byte("kdf:\n  time: 1000\n  memoryKB: 4294967295\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg := LoadFromPath(path)
	if cfg.KDF.Time != securestore.MaxParams.Time || cfg.KDF.MemoryKB != securestore.MaxParams.MemoryKB {
		t.Fatalf("kdf params should be capped, got %+v", cfg.KDF)
	}
	if err := cfg.KDF.Validate(); err != nil {
		t.Fatalf("capped params should validate: %v", err)
	}
}

func TestLoadFromPathIgnoresInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wallet.yaml")
	if err := os.WriteFile(path, []byte("wallet: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if cfg := LoadFromPath(path); cfg != Default() {
		t.Fatalf("invalid yaml should fall back to defaults, got %+v", cfg)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("XCC_NETWORK_VERSION", "0x10")
	t.Setenv("XCC_KEYSTORE_DIR", " /tmp/ks ")
	t.Setenv("XCC_KDF_TIME", "4")
	t.Setenv("XCC_KDF_MEMORY_KB", "16")
	t.Setenv("XCC_KDF_THREADS", "not-a-number")
	t.Setenv("XCC_UNLOCK_RPS", "2.5")
	t.Setenv("XCC_LOG_LEVEL", "debug")

	cfg := Default()
	ApplyEnvOverrides(&cfg)
	if cfg.Wallet.NetworkVersion != 0x10 {
		t.Fatalf("unexpected network version: %x", cfg.Wallet.NetworkVersion)
	}
	if cfg.Wallet.KeystoreDir != "/tmp/ks" {
		t.Fatalf("unexpected keystore dir: %q", cfg.Wallet.KeystoreDir)
	}
	if cfg.KDF.Time != 4 {
		t.Fatalf("unexpected kdf time: %d", cfg.KDF.Time)
	}
	if cfg.KDF.MemoryKB != securestore.MinParams.MemoryKB {
		t.Fatalf("memory should be bounded by floor, got %d", cfg.KDF.MemoryKB)
	}
	if cfg.KDF.Threads != Default().KDF.Threads {
		t.Fatalf("invalid threads should keep fallback, got %d", cfg.KDF.Threads)
	}
	if cfg.Unlock.AttemptsPerSecond != 2.5 {
		t.Fatalf("unexpected rps: %v", cfg.Unlock.AttemptsPerSecond)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}
