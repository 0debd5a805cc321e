// Package randutil provides a seedable random source that is safe to share
// between goroutines.
package randutil

import (
	"math/rand"
	"sync"
	"time"
)

type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded with seed. A zero seed means "seed from the clock".
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0, n). n <= 0 yields 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// IntBetween returns a value in [lo, hi], both inclusive. hi < lo yields lo.
func (s *Source) IntBetween(lo, hi int) int {
	if hi < lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}
