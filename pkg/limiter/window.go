package limiter

import (
	"sync"
	"time"
)

// WindowLimiter admits at most limit events per key within any sliding
// window. Unlike ConcurrentRateLimiter it allows short bursts up to the
// budget. Keys with no event left inside the window are pruned.
type WindowLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	events    map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit < 1 {
		limit = 1
	}
	return &WindowLimiter{
		limit:  limit,
		window: window,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records an event for key when the budget has room. Otherwise it
// reports how long until the oldest event leaves the window.
func (w *WindowLimiter) Allow(key string) (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.sweep(now)

	kept := inWindow(w.events[key], now.Add(-w.window))
	if len(kept) >= w.limit {
		w.events[key] = kept
		return kept[0].Add(w.window).Sub(now), false
	}
	w.events[key] = append(kept, now)
	return 0, true
}

// Len returns the number of tracked keys.
func (w *WindowLimiter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

// SetClock replaces time.Now, for tests.
func (w *WindowLimiter) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// sweep runs at most once per window.
func (w *WindowLimiter) sweep(now time.Time) {
	if now.Sub(w.lastSweep) < w.window {
		return
	}
	w.lastSweep = now
	cutoff := now.Add(-w.window)
	for key, events := range w.events {
		if len(events) == 0 || !events[len(events)-1].After(cutoff) {
			delete(w.events, key)
		}
	}
}

// inWindow drops events at or before cutoff. events is oldest first.
func inWindow(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	return events[i:]
}
