package wallet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"xyllidium/xcc-wallet/internal/entropy"
	"xyllidium/xcc-wallet/internal/identity"
	"xyllidium/xcc-wallet/internal/keyformat"
	"xyllidium/xcc-wallet/internal/metrics"
	"xyllidium/xcc-wallet/internal/platform/ratelimiter"
	"xyllidium/xcc-wallet/internal/securestore"
)

const (
	componentName = "wallet"
	entropySize   = 32
)

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordLocked   = errors.New("password attempts are temporarily locked")
	ErrKeystoreLoad     = errors.New("keystore load failed")
	ErrKeystoreWrite    = errors.New("keystore write failed")
	ErrKeystoreSeal     = errors.New("keystore encryption failed")
)

type Options struct {
	Entropy        *entropy.Source
	KDF            securestore.Params
	NetworkVersion byte
	// Random supplies keystore salts and nonces; nil means crypto/rand.
	Random  io.Reader
	Logger  *slog.Logger
	Metrics *metrics.Wallet
	Guard   *ratelimiter.UnlockGuard
	Now     func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Entropy:        entropy.NewSystem(),
		KDF:            securestore.DefaultParams(),
		NetworkVersion: keyformat.DefaultNetworkVersion,
	}
}

// Manager runs the wallet lifecycle: create, export, import. It holds no
// wallet state of its own; the only shared state is the unlock guard.
type Manager struct {
	entropy        *entropy.Source
	kdf            securestore.Params
	networkVersion byte
	random         io.Reader
	logger         *slog.Logger
	metrics        *metrics.Wallet
	guard          *ratelimiter.UnlockGuard
	now            func() time.Time
}

// NewManager fills unset dependencies; build opts from DefaultOptions so the
// network version is not left at zero.
func NewManager(opts Options) *Manager {
	m := &Manager{
		entropy:        opts.Entropy,
		kdf:            opts.KDF,
		networkVersion: opts.NetworkVersion,
		random:         opts.Random,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		guard:          opts.Guard,
		now:            opts.Now,
	}
	if m.entropy == nil {
		m.entropy = entropy.NewSystem()
	}
	if m.kdf == (securestore.Params{}) {
		m.kdf = securestore.DefaultParams()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Create draws fresh entropy and derives a new, independent identity.
func (m *Manager) Create() (w *Wallet, err error) {
	started := time.Now()
	defer func() { m.metrics.RecordOp("create", started, err) }()

	buf, err := m.entropy.Read(entropySize)
	if err != nil {
		m.recordError("entropy", "create", err)
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	seed := identity.DeriveMasterKey(buf)
	zeroBytes(buf)
	defer seed.Wipe()

	w, err = newWallet(seed, m.networkVersion)
	if err != nil {
		m.recordError("derive", "create", err)
		return nil, err
	}
	m.logInfo("create", "wallet created", "address", w.address.String())
	return w, nil
}

// Restore rebuilds the wallet that seed deterministically defines.
func (m *Manager) Restore(seed identity.Seed) (*Wallet, error) {
	return newWallet(seed, m.networkVersion)
}

func (m *Manager) RestoreMnemonic(mnemonic string) (*Wallet, error) {
	seed, err := identity.SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return m.Restore(seed)
}

// Export seals the wallet seed under password and writes it to path. The
// write is atomic: on any error nothing is left at path.
func (m *Manager) Export(w *Wallet, path, password string) (err error) {
	started := time.Now()
	defer func() { m.metrics.RecordOp("export", started, err) }()

	if w == nil || w.keys == nil {
		return ErrNilWallet
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	path = securestore.NormalizePath(path)

	plaintext := w.seed.Bytes()
	rec, err := securestore.Seal(password, plaintext, m.kdf, m.random)
	zeroBytes(plaintext)
	if err != nil {
		m.recordError("seal", "export", err)
		return fmt.Errorf("%w: %v", ErrKeystoreSeal, err)
	}
	if err := securestore.WriteFile(path, rec); err != nil {
		m.recordError("storage", "export", err, "keystore_path", path)
		return fmt.Errorf("%w: %w", ErrKeystoreWrite, err)
	}
	m.logInfo("export", "keystore written", "keystore_path", path, "address", w.address.String())
	return nil
}

// Import loads the keystore at path, unseals it and re-derives the wallet.
// A wrong password and a tampered ciphertext both surface as
// ErrInvalidPassword.
func (m *Manager) Import(path, password string) (w *Wallet, err error) {
	started := time.Now()
	defer func() { m.metrics.RecordOp("import", started, err) }()

	path = securestore.NormalizePath(path)
	seed, err := m.unseal(path, password, "import")
	if err != nil {
		return nil, err
	}
	defer seed.Wipe()

	w, err = newWallet(seed, m.networkVersion)
	if err != nil {
		m.recordError("derive", "import", err)
		return nil, err
	}
	m.logInfo("import", "wallet imported", "keystore_path", path, "address", w.address.String())
	return w, nil
}

// ChangePassword re-seals the keystore at path under newPassword with a fresh
// salt and nonce.
func (m *Manager) ChangePassword(path, oldPassword, newPassword string) (err error) {
	started := time.Now()
	defer func() { m.metrics.RecordOp("change_password", started, err) }()

	if strings.TrimSpace(newPassword) == "" {
		return ErrPasswordRequired
	}
	path = securestore.NormalizePath(path)
	seed, err := m.unseal(path, oldPassword, "change_password")
	if err != nil {
		return err
	}
	defer seed.Wipe()

	plaintext := seed.Bytes()
	rec, err := securestore.Seal(newPassword, plaintext, m.kdf, m.random)
	zeroBytes(plaintext)
	if err != nil {
		m.recordError("seal", "change_password", err)
		return fmt.Errorf("%w: %v", ErrKeystoreSeal, err)
	}
	if err := securestore.WriteFile(path, rec); err != nil {
		m.recordError("storage", "change_password", err, "keystore_path", path)
		return fmt.Errorf("%w: %w", ErrKeystoreWrite, err)
	}
	m.logInfo("change_password", "keystore password changed", "keystore_path", path)
	return nil
}

func (m *Manager) unseal(path, password, operation string) (identity.Seed, error) {
	if strings.TrimSpace(password) == "" {
		return identity.Seed{}, ErrPasswordRequired
	}
	rec, err := securestore.ReadFile(path)
	if err != nil {
		m.recordError("storage", operation, err, "keystore_path", path)
		return identity.Seed{}, fmt.Errorf("%w: %w", ErrKeystoreLoad, err)
	}
	if err := m.guard.Allow(path, m.now()); err != nil {
		m.recordError("locked", operation, err, "keystore_path", path)
		return identity.Seed{}, fmt.Errorf("%w: %v", ErrPasswordLocked, err)
	}

	plaintext, err := securestore.Open(rec, password)
	switch {
	case errors.Is(err, securestore.ErrAuthFailed):
		m.guard.Failure(path, m.now())
		m.recordError("invalid_password", operation, ErrInvalidPassword, "keystore_path", path)
		return identity.Seed{}, ErrInvalidPassword
	case err != nil:
		m.recordError("storage", operation, err, "keystore_path", path)
		return identity.Seed{}, fmt.Errorf("%w: %w", ErrKeystoreLoad, err)
	}
	defer zeroBytes(plaintext)
	m.guard.Success(path)

	seed, err := identity.SeedFromBytes(plaintext)
	if err != nil {
		m.recordError("storage", operation, err, "keystore_path", path)
		return identity.Seed{}, fmt.Errorf("%w: unexpected payload", ErrKeystoreLoad)
	}
	return seed, nil
}

func (m *Manager) logInfo(operation, message string, attrs ...any) {
	base := []any{
		"component", componentName,
		"operation", operation,
	}
	m.logger.Info(message, append(base, attrs...)...)
}

func (m *Manager) recordError(category, operation string, err error, attrs ...any) {
	if err == nil {
		return
	}
	m.metrics.RecordError(category)
	base := []any{
		"component", componentName,
		"operation", operation,
		"category", category,
		"error", err.Error(),
	}
	m.logger.Warn("wallet error", append(base, attrs...)...)
}
