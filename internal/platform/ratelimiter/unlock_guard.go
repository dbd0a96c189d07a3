package ratelimiter

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrRateLimited = errors.New("too many unlock attempts")
	ErrLocked      = errors.New("unlock attempts are temporarily locked")
)

const (
	defaultIdleTTL = 10 * time.Minute
	maxBackoffStep = 5
)

// UnlockGuard throttles password attempts per key (usually a keystore path).
// It combines a token bucket with exponential lockout after failures.
type UnlockGuard struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

type entry struct {
	limiter        *rate.Limiter
	failedAttempts int
	lockedUntil    time.Time
	lastSeen       time.Time
}

// NewUnlockGuard returns nil (which allows everything) if rps or burst is not positive.
func NewUnlockGuard(rps float64, burst int) *UnlockGuard {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &UnlockGuard{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		byKey:   make(map[string]*entry),
	}
}

// Allow consumes one attempt for key at now.
func (g *UnlockGuard) Allow(key string, now time.Time) error {
	if g == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entryLocked(key, now)
	if !e.lockedUntil.IsZero() && now.Before(e.lockedUntil) {
		return ErrLocked
	}
	if !e.limiter.AllowN(now, 1) {
		return ErrRateLimited
	}
	g.evictLocked(now)
	return nil
}

// Failure records a wrong password and extends the lockout: 1s, 2s, 4s... up to 32s.
func (g *UnlockGuard) Failure(key string, now time.Time) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entryLocked(strings.TrimSpace(key), now)
	e.failedAttempts++
	e.lockedUntil = now.Add(FailedAttemptBackoff(e.failedAttempts))
}

func (g *UnlockGuard) Success(key string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.byKey[strings.TrimSpace(key)]; ok {
		e.failedAttempts = 0
		e.lockedUntil = time.Time{}
	}
}

func FailedAttemptBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift > maxBackoffStep {
		shift = maxBackoffStep
	}
	return time.Second * time.Duration(1<<shift)
}

func (g *UnlockGuard) entryLocked(key string, now time.Time) *entry {
	e, ok := g.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.byKey[key] = e
	}
	e.lastSeen = now
	return e
}

func (g *UnlockGuard) evictLocked(now time.Time) {
	g.hits++
	if g.hits%512 != 0 {
		return
	}
	cutoff := now.Add(-g.idleTTL)
	for k, v := range g.byKey {
		if v.lastSeen.Before(cutoff) && now.After(v.lockedUntil) {
			delete(g.byKey, k)
		}
	}
}
