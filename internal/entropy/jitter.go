package entropy

import (
	"encoding/binary"
	"math/bits"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	defaultJitterSamples = 256
	jitterLoopRounds     = 500
)

// JitterChannel measures timing variation of a short, data-dependent loop.
// On its own it is weak; it only ever contributes to a mixed digest.
type JitterChannel struct {
	samples int
	now     func() time.Time
}

func NewJitterChannel(samples int) *JitterChannel {
	if samples <= 0 {
		samples = defaultJitterSamples
	}
	return &JitterChannel{samples: samples, now: time.Now}
}

func (j *JitterChannel) Sample() []byte {
	h := sha3.New512()
	var buf [8]byte
	for i := 0; i < j.samples; i++ {
		binary.LittleEndian.PutUint64(buf[:], j.sampleOnce())
		_, _ = h.Write(buf[:])
	}
	return h.Sum(nil)
}

func (j *JitterChannel) sampleOnce() uint64 {
	start := j.now()
	var x uint64
	for i := uint64(0); i < jitterLoopRounds; i++ {
		x += i ^ bits.RotateLeft64(x, int(i%63))
	}
	elapsed := uint64(j.now().Sub(start).Nanoseconds())
	return elapsed ^ x
}
