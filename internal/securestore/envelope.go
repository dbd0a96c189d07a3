package securestore

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	recordVersion = 1
	kdfName       = "argon2id"
	saltSize      = 16
	NonceSize     = chacha20poly1305.NonceSize
	filePrefix    = "XCCKS1\n"
)

var (
	ErrAuthFailed = errors.New("securestore authentication failed")
	ErrInvalid    = errors.New("securestore record is invalid")
)

// saltEncoding is the PHC string format's unpadded standard base64.
var saltEncoding = base64.RawStdEncoding

// Params are the argon2id work factors.
type Params struct {
	Time     uint32 `json:"time" yaml:"time"`
	MemoryKB uint32 `json:"memory_kb" yaml:"memoryKB"`
	Threads  uint8  `json:"threads" yaml:"threads"`
}

// MinParams is the weakest policy Open accepts; anything below is treated as
// a downgraded record.
var MinParams = Params{Time: 1, MemoryKB: 8 * 1024, Threads: 1}

// MaxParams caps the work a record can demand from Open. Records above it are
// rejected as invalid instead of being handed to argon2.
var MaxParams = Params{Time: 64, MemoryKB: 4 * 1024 * 1024, Threads: 255}

func DefaultParams() Params {
	return Params{Time: 2, MemoryKB: 64 * 1024, Threads: 1}
}

func (p Params) Validate() error {
	if p.Time < MinParams.Time || p.MemoryKB < MinParams.MemoryKB || p.Threads < MinParams.Threads {
		return fmt.Errorf("%w: kdf params below floor (t=%d m=%d p=%d)", ErrInvalid, p.Time, p.MemoryKB, p.Threads)
	}
	if p.Time > MaxParams.Time || p.MemoryKB > MaxParams.MemoryKB {
		return fmt.Errorf("%w: kdf params above ceiling (t=%d m=%d p=%d)", ErrInvalid, p.Time, p.MemoryKB, p.Threads)
	}
	return nil
}

// Record is the persisted, password-sealed form of a secret.
type Record struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        string `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

func (r *Record) params() Params {
	return Params{Time: r.KDFTime, MemoryKB: r.KDFMemoryKB, Threads: r.KDFThreads}
}

// Seal encrypts plaintext under a key stretched from password. Salt and nonce
// are drawn fresh from random on every call. A nil random uses crypto/rand.
func Seal(password string, plaintext []byte, params Params, random io.Reader) (*Record, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	return &Record{
		Version:     recordVersion,
		KDF:         kdfName,
		KDFTime:     params.Time,
		KDFMemoryKB: params.MemoryKB,
		KDFThreads:  params.Threads,
		Salt:        saltEncoding.EncodeToString(salt),
		Nonce:       nonce,
		Ciphertext:  ciphertext,
	}, nil
}

// Open reverses Seal. A wrong password and a tampered ciphertext both yield
// ErrAuthFailed; structural defects yield ErrInvalid.
func Open(rec *Record, password string) ([]byte, error) {
	if rec == nil || rec.Version != recordVersion || rec.KDF != kdfName {
		return nil, ErrInvalid
	}
	if err := rec.params().Validate(); err != nil {
		return nil, err
	}
	salt, err := saltEncoding.DecodeString(rec.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, fmt.Errorf("%w: malformed salt", ErrInvalid)
	}
	if len(rec.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce size %d", ErrInvalid, len(rec.Nonce))
	}
	if len(rec.Ciphertext) < chacha20poly1305.Overhead {
		return nil, ErrAuthFailed
	}

	key := deriveKey(password, salt, rec.params())
	defer zeroBytes(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, rec.Nonce, rec.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// Marshal renders a record in the on-disk format: a magic line followed by JSON.
func Marshal(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, ErrInvalid
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append([]byte(filePrefix), raw...), nil
}

func Unmarshal(data []byte) (*Record, error) {
	if !bytes.HasPrefix(data, []byte(filePrefix)) {
		return nil, fmt.Errorf("%w: missing header", ErrInvalid)
	}
	var rec Record
	if err := json.Unmarshal(data[len(filePrefix):], &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &rec, nil
}

func deriveKey(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
