package timeutil

import "time"

// BackoffParam describes an exponential backoff curve.
//
//	initialDuration := 2 * time.Second // first retry waits 2s
//	multiplier := 2.0                  // 2s, 4s, 8s, ...
//	maxDuration := 30 * time.Second    // never wait longer than 30s
type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	if multiplier < 1 {
		multiplier = 1
	}
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}
