package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/fic-roulette/pkg/timeutil"
)

// RateLimiter spaces out events that share a key.
// Responsibilities:
// - Bookkeep each key's last event timestamp
// - Grow and reset an exponential backoff per key
// - Compute the remaining wait before the next event for a key
//
// The fetcher keys it by catalog host (courtesy delay toward the remote
// catalog); the HTTP server keys it by client address.
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetBackoffParam(param timeutil.BackoffParam)
	Backoff(key string)
	ResetBackoff(key string)
	MarkLastSeenAsNow(key string)
	ResolveDelay(key string) time.Duration
	Wait(ctx context.Context, key string) error
}

type ConcurrentRateLimiter struct {
	mu           sync.RWMutex
	rngMu        sync.Mutex
	baseDelay    time.Duration
	jitter       time.Duration
	backoffParam timeutil.BackoffParam
	timings      map[string]keyTiming
	rng          *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		timings:      make(map[string]keyTiming),
		backoffParam: timeutil.NewBackoffParam(time.Second, 2.0, 30*time.Second),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoffParam = param
}

// Backoff increments the key's backoff counter and recomputes its delay.
func (r *ConcurrentRateLimiter) Backoff(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.timings[key]
	timing.backoffCount++
	// jitter is added once in ResolveDelay, not here
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, nil, r.backoffParam)
	r.timings[key] = timing
}

// ResetBackoff clears backoff state after a successful event.
func (r *ConcurrentRateLimiter) ResetBackoff(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.timings[key]
	if exists {
		timing.backoffCount = 0
		timing.backoffDelay = 0
		r.timings[key] = timing
	}
}

func (r *ConcurrentRateLimiter) MarkLastSeenAsNow(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.timings[key]
	timing.lastSeenAt = time.Now()
	r.timings[key] = timing
}

// ResolveDelay returns how long the caller must still wait before the next
// event for key: max(baseDelay, backoffDelay) + jitter, minus the time elapsed
// since the last event. Unknown keys never wait.
func (r *ConcurrentRateLimiter) ResolveDelay(key string) time.Duration {
	r.mu.RLock()
	timing, exists := r.timings[key]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.lastSeenAt.IsZero() {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.backoffDelay})
	finalDelay += r.computeJitter(jitter)

	elapsed := time.Since(timing.lastSeenAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Reserve claims the key's next slot and returns how long the caller must
// wait for it. Each slot is computed from the previous reservation, so
// concurrent callers are spaced out instead of released together.
func (r *ConcurrentRateLimiter) Reserve(key string) time.Duration {
	wait, _, _ := r.reserve(key)
	return wait
}

func (r *ConcurrentRateLimiter) reserve(key string) (time.Duration, time.Time, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	timing := r.timings[key]
	prev := timing.lastSeenAt
	slot := now
	if !prev.IsZero() {
		delay := timeutil.MaxDuration([]time.Duration{r.baseDelay, timing.backoffDelay})
		delay += r.computeJitter(r.jitter)
		if next := prev.Add(delay); next.After(now) {
			slot = next
		}
	}
	timing.lastSeenAt = slot
	r.timings[key] = timing
	return slot.Sub(now), slot, prev
}

// release hands an unused slot back, unless a later caller already reserved
// after it.
func (r *ConcurrentRateLimiter) release(key string, slot, prev time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.timings[key]
	if exists && timing.lastSeenAt.Equal(slot) {
		timing.lastSeenAt = prev
		r.timings[key] = timing
	}
}

// Wait reserves the key's next slot and sleeps until it. A cancelled wait
// gives its slot back.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, key string) error {
	wait, slot, prev := r.reserve(key)
	if err := timeutil.Sleep(ctx, wait); err != nil {
		r.release(key, slot, prev)
		return err
	}
	return nil
}

func (r *ConcurrentRateLimiter) computeJitter(max time.Duration) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	return timeutil.ComputeJitter(max, r.rng)
}

// SetRNG allows injecting a custom random number generator for testing
func (r *ConcurrentRateLimiter) SetRNG(rng *rand.Rand) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rng
}

func (r *ConcurrentRateLimiter) Timing(key string) (keyTiming, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timing, ok := r.timings[key]
	return timing, ok
}
