package limiter

import "time"

// timing-related data used to space requests to one key (a host or a client)
type keyTiming struct {
	lastSeenAt   time.Time
	backoffDelay time.Duration
	backoffCount int
}

func (k *keyTiming) BackOffDelay() time.Duration {
	return k.backoffDelay
}

func (k *keyTiming) LastSeenAt() time.Time {
	return k.lastSeenAt
}

func (k *keyTiming) BackoffCount() int {
	return k.backoffCount
}
