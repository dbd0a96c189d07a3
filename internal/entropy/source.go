package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

const randomDrawSize = 64

var (
	ErrUnavailable   = errors.New("entropy source unavailable")
	ErrInvalidLength = errors.New("entropy length must not be negative")
)

// NoiseChannel is an auxiliary, possibly weak, noise input mixed into every draw.
type NoiseChannel interface {
	Sample() []byte
}

// Source combines a secure random reader with auxiliary noise channels and
// compresses them through SHA3-512.
type Source struct {
	random   io.Reader
	channels []NoiseChannel
}

func New(random io.Reader, channels ...NoiseChannel) *Source {
	return &Source{
		random:   random,
		channels: append([]NoiseChannel(nil), channels...),
	}
}

// NewSystem returns a source backed by the operating system CSPRNG plus CPU
// timing jitter and an independent second OS draw.
func NewSystem() *Source {
	return New(rand.Reader, NewJitterChannel(defaultJitterSamples), readerChannel{r: rand.Reader, size: randomDrawSize})
}

// Read returns exactly n bytes. Failure of the random reader is fatal and is
// reported as ErrUnavailable; there are no retries.
func (s *Source) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	if s == nil || s.random == nil {
		return nil, ErrUnavailable
	}
	if n == 0 {
		return []byte{}, nil
	}

	draw := make([]byte, randomDrawSize)
	defer zeroBytes(draw)
	if _, err := io.ReadFull(s.random, draw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	h := sha3.New512()
	writePart(h, draw)
	for _, ch := range s.channels {
		if ch == nil {
			continue
		}
		writePart(h, ch.Sample())
	}
	out := h.Sum(nil)

	for len(out) < n {
		next := sha3.Sum512(out)
		out = append(out, next[:]...)
	}
	result := append([]byte(nil), out[:n]...)
	zeroBytes(out)
	return result, nil
}

// writePart length-prefixes each input so that channel boundaries cannot shift.
func writePart(w io.Writer, part []byte) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(part)))
	_, _ = w.Write(size[:])
	_, _ = w.Write(part)
}

type readerChannel struct {
	r    io.Reader
	size int
}

func (c readerChannel) Sample() []byte {
	buf := make([]byte, c.size)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil
	}
	return buf
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
