package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/prometheus/client_golang/prometheus"

	"xyllidium/xcc-wallet/internal/config"
	"xyllidium/xcc-wallet/internal/identity"
	"xyllidium/xcc-wallet/internal/keyformat"
	"xyllidium/xcc-wallet/internal/metrics"
	"xyllidium/xcc-wallet/internal/platform/privacylog"
	"xyllidium/xcc-wallet/internal/platform/ratelimiter"
	"xyllidium/xcc-wallet/internal/securestore"
	"xyllidium/xcc-wallet/internal/wallet"
	"xyllidium/xcc-wallet/pkg/models"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	exitOK              = 0
	exitInvalidInput    = 10
	exitKeystoreFailed  = 20
	exitPasswordFailed  = 30
	exitVerifyFailed    = 40
	defaultKeystoreName = "wallet.keystore"
	passwordEnv         = "XCC_WALLET_PASSWORD"
	newPasswordEnv      = "XCC_WALLET_NEW_PASSWORD"
	metricsTextfileEnv  = "XCC_METRICS_TEXTFILE"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitInvalidInput)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "address":
		runAddress(os.Args[2:])
	case "sign":
		runSign(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	case "mnemonic":
		runMnemonic(os.Args[2:])
	case "passwd":
		runPasswd(os.Args[2:])
	case "version", "-version", "--version":
		writeStdoutf(exitInvalidInput, "xcc-wallet version=%s commit=%s build_date=%s\n", version, commit, buildDate)
	default:
		printUsage()
		os.Exit(exitInvalidInput)
	}
}

// runtimeEnv is what every keystore command needs: config, a manager wired to
// logging, metrics and the unlock guard, and the registry to flush on exit.
type runtimeEnv struct {
	cfg      config.Config
	manager  *wallet.Manager
	registry *prometheus.Registry
	logger   *slog.Logger
}

func newRuntime(configPath string) *runtimeEnv {
	cfg := config.LoadFromPath(configPath)
	logger := privacylog.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	registry := prometheus.NewRegistry()
	walletMetrics, err := metrics.NewWallet(registry)
	if err != nil {
		logger.Warn("metrics disabled", "error", err.Error())
		walletMetrics = nil
	}

	opts := wallet.DefaultOptions()
	opts.KDF = cfg.KDF
	opts.NetworkVersion = cfg.Wallet.NetworkVersion
	opts.Logger = logger
	opts.Metrics = walletMetrics
	opts.Guard = ratelimiter.NewUnlockGuard(cfg.Unlock.AttemptsPerSecond, cfg.Unlock.Burst)

	return &runtimeEnv{
		cfg:      cfg,
		manager:  wallet.NewManager(opts),
		registry: registry,
		logger:   logger,
	}
}

func (r *runtimeEnv) keystorePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return securestore.NormalizePath(p)
	}
	return filepath.Join(r.cfg.Wallet.KeystoreDir, defaultKeystoreName)
}

// flushMetrics writes the registry in text exposition format when
// XCC_METRICS_TEXTFILE names a file, for pickup by a textfile collector.
func (r *runtimeEnv) flushMetrics() {
	path := strings.TrimSpace(os.Getenv(metricsTextfileEnv))
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		r.logger.Warn("metrics textfile write failed", "error", err.Error())
	}
}

func (r *runtimeEnv) exit(code int) {
	r.flushMetrics()
	os.Exit(code)
}

func (r *runtimeEnv) fail(err error) {
	r.flushMetrics()
	writeStderrln(err.Error(), exitCodeFor(err))
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path (default <keystoreDir>/wallet.keystore)")
	password := fs.String("password", "", "keystore password (default $"+passwordEnv+")")
	force := fs.Bool("force", false, "overwrite an existing keystore")
	showMnemonic := fs.Bool("show-mnemonic", false, "print the 24-word backup phrase to stderr")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	rt := newRuntime(*configPath)
	path := rt.keystorePath(*keystore)
	if !*force {
		if _, err := os.Stat(path); err == nil {
			writeStderrln("keystore already exists: "+path+" (use -force to overwrite)", exitInvalidInput)
		}
	}

	w, err := rt.manager.Create()
	if err != nil {
		rt.fail(err)
		return
	}
	if err := rt.manager.Export(w, path, passwordFrom(*password, passwordEnv)); err != nil {
		rt.fail(err)
		return
	}
	if *showMnemonic {
		printMnemonic(w)
	}
	if err := printJSON(models.KeystoreInfo{Path: path, Address: w.Address().String()}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	w.Wipe()
	rt.exit(exitOK)
}

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path (default <keystoreDir>/wallet.keystore)")
	password := fs.String("password", "", "keystore password (default $"+passwordEnv+")")
	mnemonicFile := fs.String("mnemonic-file", "", "file holding the 24-word backup phrase")
	masterKey := fs.String("master-key", "", "XYL-MK- encoded master key")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	rt := newRuntime(*configPath)
	var (
		w   *wallet.Wallet
		err error
	)
	switch {
	case strings.TrimSpace(*mnemonicFile) != "":
		raw, readErr := os.ReadFile(*mnemonicFile)
		if readErr != nil {
			writeStderrln(readErr.Error(), exitInvalidInput)
		}
		w, err = rt.manager.RestoreMnemonic(string(raw))
	case strings.TrimSpace(*masterKey) != "":
		key, ok := keyformat.DecodeKey(strings.TrimSpace(*masterKey))
		if !ok || key.Type != keyformat.Master {
			writeStderrln("master key is not a valid XYL-MK- string", exitInvalidInput)
		}
		seed, seedErr := identity.SeedFromBytes(key.Raw)
		if seedErr != nil {
			writeStderrln(seedErr.Error(), exitInvalidInput)
		}
		w, err = rt.manager.Restore(seed)
	default:
		writeStderrln("one of -mnemonic-file or -master-key is required", exitInvalidInput)
	}
	if err != nil {
		rt.fail(err)
		return
	}

	path := rt.keystorePath(*keystore)
	if err := rt.manager.Export(w, path, passwordFrom(*password, passwordEnv)); err != nil {
		rt.fail(err)
		return
	}
	if err := printJSON(models.KeystoreInfo{Path: path, Address: w.Address().String()}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	w.Wipe()
	rt.exit(exitOK)
}

func runAddress(args []string) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path")
	password := fs.String("password", "", "keystore password (default $"+passwordEnv+")")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	rt := newRuntime(*configPath)
	w, err := rt.manager.Import(rt.keystorePath(*keystore), passwordFrom(*password, passwordEnv))
	if err != nil {
		rt.fail(err)
		return
	}
	if err := printJSON(w.Info()); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	w.Wipe()
	rt.exit(exitOK)
}

func runSign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path")
	password := fs.String("password", "", "keystore password (default $"+passwordEnv+")")
	message := fs.String("message", "", "message to sign")
	messageFile := fs.String("message-file", "", "file whose contents are signed (overrides -message)")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	msg := readMessage(*message, *messageFile)

	rt := newRuntime(*configPath)
	w, err := rt.manager.Import(rt.keystorePath(*keystore), passwordFrom(*password, passwordEnv))
	if err != nil {
		rt.fail(err)
		return
	}
	sig, err := w.Sign(msg)
	if err != nil {
		rt.fail(err)
		return
	}
	out := models.SignedMessage{
		Address:   w.Address().String(),
		PublicKey: w.EncodedPublicKey(),
		Message:   msg,
		Signature: base58.Encode(sig.Bytes()),
	}
	if err := printJSON(out); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	w.Wipe()
	rt.exit(exitOK)
}

func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	input := fs.String("input", "", "signed message JSON file produced by sign (- for stdin)")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	var (
		raw []byte
		err error
	)
	switch strings.TrimSpace(*input) {
	case "":
		writeStderrln("input is required", exitInvalidInput)
	case "-":
		raw, err = io.ReadAll(os.Stdin)
	default:
		raw, err = os.ReadFile(*input)
	}
	if err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	var signed models.SignedMessage
	if err := json.Unmarshal(raw, &signed); err != nil {
		writeStderrln("invalid signed message: "+err.Error(), exitInvalidInput)
	}

	result := models.VerifyResult{Address: signed.Address, Valid: verifySigned(signed)}
	if err := printJSON(result); err != nil {
		writeStderrln(err.Error(), exitVerifyFailed)
	}
	if !result.Valid {
		os.Exit(exitVerifyFailed)
	}
	os.Exit(exitOK)
}

func verifySigned(signed models.SignedMessage) bool {
	addr, ok := keyformat.ParseAddress(signed.Address)
	if !ok {
		return false
	}
	pub, ok := wallet.ParsePublicKey(signed.PublicKey)
	if !ok {
		return false
	}
	rawSig, err := base58.Decode(signed.Signature)
	if err != nil {
		return false
	}
	sig, err := identity.ParseHybridSignature(rawSig)
	if err != nil {
		return false
	}
	return wallet.VerifyWithAddress(addr, pub, signed.Message, sig)
}

func runMnemonic(args []string) {
	fs := flag.NewFlagSet("mnemonic", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path")
	password := fs.String("password", "", "keystore password (default $"+passwordEnv+")")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	rt := newRuntime(*configPath)
	w, err := rt.manager.Import(rt.keystorePath(*keystore), passwordFrom(*password, passwordEnv))
	if err != nil {
		rt.fail(err)
		return
	}
	printMnemonic(w)
	w.Wipe()
	rt.exit(exitOK)
}

func runPasswd(args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	configPath := fs.String("config", "", "path to wallet.yaml (optional)")
	keystore := fs.String("keystore", "", "keystore file path")
	password := fs.String("password", "", "current password (default $"+passwordEnv+")")
	newPassword := fs.String("new-password", "", "new password (default $"+newPasswordEnv+")")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	rt := newRuntime(*configPath)
	path := rt.keystorePath(*keystore)
	err := rt.manager.ChangePassword(path, passwordFrom(*password, passwordEnv), passwordFrom(*newPassword, newPasswordEnv))
	if err != nil {
		rt.fail(err)
		return
	}
	if err := printJSON(map[string]any{"path": path, "changed": true}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	rt.exit(exitOK)
}

func passwordFrom(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

func readMessage(message, messageFile string) []byte {
	if strings.TrimSpace(messageFile) == "" {
		return []byte(message)
	}
	raw, err := os.ReadFile(messageFile)
	if err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	return raw
}

func printMnemonic(w *wallet.Wallet) {
	phrase, err := w.Mnemonic()
	if err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	if _, err := fmt.Fprintln(os.Stderr, phrase); err != nil {
		os.Exit(exitKeystoreFailed)
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrInvalidPassword), errors.Is(err, wallet.ErrPasswordLocked):
		return exitPasswordFailed
	case errors.Is(err, wallet.ErrPasswordRequired), errors.Is(err, identity.ErrInvalidMnemonic):
		return exitInvalidInput
	default:
		return exitKeystoreFailed
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	writeStdoutln(exitInvalidInput, "xcc-wallet <command> [flags]")
	writeStdoutln(exitInvalidInput, "commands:")
	writeStdoutln(exitInvalidInput, "  create    [-config path] [-keystore path] [-password pw] [-force] [-show-mnemonic]")
	writeStdoutln(exitInvalidInput, "  restore   [-config path] [-keystore path] [-password pw] (-mnemonic-file path | -master-key XYL-MK-...)")
	writeStdoutln(exitInvalidInput, "  address   [-config path] [-keystore path] [-password pw]")
	writeStdoutln(exitInvalidInput, "  sign      [-config path] [-keystore path] [-password pw] (-message text | -message-file path)")
	writeStdoutln(exitInvalidInput, "  verify    -input signed.json|-")
	writeStdoutln(exitInvalidInput, "  mnemonic  [-config path] [-keystore path] [-password pw]")
	writeStdoutln(exitInvalidInput, "  passwd    [-config path] [-keystore path] [-password pw] [-new-password pw]")
	writeStdoutln(exitInvalidInput, "  version")
	writeStdoutln(exitInvalidInput, "passwords default to $"+passwordEnv+" and $"+newPasswordEnv)
}

func writeStdoutln(exitCode int, line string) {
	if _, err := fmt.Fprintln(os.Stdout, line); err != nil {
		os.Exit(exitCode)
	}
}

func writeStdoutf(exitCode int, format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stdout, format, args...); err != nil {
		os.Exit(exitCode)
	}
}

func writeStderrln(line string, exitCode int) {
	if _, err := fmt.Fprintln(os.Stderr, line); err != nil {
		os.Exit(exitCode)
	}
	os.Exit(exitCode)
}
