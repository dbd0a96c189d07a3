package config

import (
	"os"
	"strings"

	"xyllidium/xcc-wallet/internal/keyformat"
	"xyllidium/xcc-wallet/internal/securestore"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Wallet WalletConfig
	KDF    securestore.Params
	Unlock UnlockConfig
	Log    LogConfig
}

type WalletConfig struct {
	NetworkVersion byte
	KeystoreDir    string
}

type UnlockConfig struct {
	AttemptsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level  string
	Format string
}

// FileConfig mirrors config.yaml. Pointer fields distinguish "unset" from zero.
type FileConfig struct {
	Wallet struct {
		NetworkVersion *int   `yaml:"networkVersion"`
		KeystoreDir    string `yaml:"keystoreDir"`
	} `yaml:"wallet"`
	KDF struct {
		Time     uint32 `yaml:"time"`
		MemoryKB uint32 `yaml:"memoryKB"`
		Threads  uint8  `yaml:"threads"`
	} `yaml:"kdf"`
	Unlock struct {
		AttemptsPerSecond float64 `yaml:"attemptsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"unlock"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	return Config{
		Wallet: WalletConfig{
			NetworkVersion: keyformat.DefaultNetworkVersion,
			KeystoreDir:    "keystore",
		},
		KDF: securestore.DefaultParams(),
		Unlock: UnlockConfig{
			AttemptsPerSecond: 0.5,
			Burst:             3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromPath reads configPath (or the default candidates when empty),
// merges it over Default and applies XCC_* environment overrides. A missing
// or unparsable file falls back to defaults.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if strings.TrimSpace(configPath) != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/wallet.yaml",
			"wallet.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := Parse(data)
		if err != nil {
			continue
		}
		Merge(&cfg, parsed)
		break
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Parse(data []byte) (FileConfig, error) {
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return FileConfig{}, err
	}
	return parsed, nil
}

func Merge(dst *Config, src FileConfig) {
	if v := src.Wallet.NetworkVersion; v != nil && *v >= 0 && *v <= 0xFF {
		dst.Wallet.NetworkVersion = byte(*v)
	}
	if src.Wallet.KeystoreDir != "" {
		dst.Wallet.KeystoreDir = src.Wallet.KeystoreDir
	}
	if src.KDF.Time != 0 {
		dst.KDF.Time = src.KDF.Time
	}
	if src.KDF.MemoryKB != 0 {
		dst.KDF.MemoryKB = src.KDF.MemoryKB
	}
	if src.KDF.Threads != 0 {
		dst.KDF.Threads = src.KDF.Threads
	}
	if src.Unlock.AttemptsPerSecond > 0 {
		dst.Unlock.AttemptsPerSecond = src.Unlock.AttemptsPerSecond
	}
	if src.Unlock.Burst > 0 {
		dst.Unlock.Burst = src.Unlock.Burst
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
	clampKDF(&dst.KDF)
}

func ApplyEnvOverrides(cfg *Config) {
	cfg.Wallet.NetworkVersion = byte(envBoundedIntWithFallback("XCC_NETWORK_VERSION", int(cfg.Wallet.NetworkVersion), 0, 0xFF))
	if dir := envString("XCC_KEYSTORE_DIR"); dir != "" {
		cfg.Wallet.KeystoreDir = dir
	}
	cfg.KDF.Time = uint32(envBoundedIntWithFallback("XCC_KDF_TIME", int(cfg.KDF.Time), int(securestore.MinParams.Time), int(securestore.MaxParams.Time)))
	cfg.KDF.MemoryKB = uint32(envBoundedIntWithFallback("XCC_KDF_MEMORY_KB", int(cfg.KDF.MemoryKB), int(securestore.MinParams.MemoryKB), int(securestore.MaxParams.MemoryKB)))
	cfg.KDF.Threads = uint8(envBoundedIntWithFallback("XCC_KDF_THREADS", int(cfg.KDF.Threads), 1, 255))
	cfg.Unlock.AttemptsPerSecond = envFloatWithFallback("XCC_UNLOCK_RPS", cfg.Unlock.AttemptsPerSecond)
	cfg.Unlock.Burst = envIntWithFallback("XCC_UNLOCK_BURST", cfg.Unlock.Burst)
	if level := envString("XCC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := envString("XCC_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	clampKDF(&cfg.KDF)
}

// clampKDF keeps work factors within the range securestore.Open accepts.
func clampKDF(p *securestore.Params) {
	if p.Time < securestore.MinParams.Time {
		p.Time = securestore.MinParams.Time
	}
	if p.MemoryKB < securestore.MinParams.MemoryKB {
		p.MemoryKB = securestore.MinParams.MemoryKB
	}
	if p.Threads < securestore.MinParams.Threads {
		p.Threads = securestore.MinParams.Threads
	}
	if p.Time > securestore.MaxParams.Time {
		p.Time = securestore.MaxParams.Time
	}
	if p.MemoryKB > securestore.MaxParams.MemoryKB {
		p.MemoryKB = securestore.MaxParams.MemoryKB
	}
}
