package orchestrator

import "github.com/rohmanhakim/fic-roulette/internal/catalog"

// Source says where a Result's item came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceNone  Source = "none"
)

const (
	// ErrMsgNoWorks is reported when the catalog has no matches for the filter.
	// It is an answer, not a fault: the cache is not consulted.
	ErrMsgNoWorks = "no works found"
	// ErrMsgUnavailable is reported when the live catalog failed and no
	// cached results exist for the filter.
	ErrMsgUnavailable = "catalog unavailable"
)

// Result is the outcome of one random pick.
//
// Either Item is set with Source live or cache, or Item is nil and Error is
// set. FallbackReason is set whenever the live path failed.
type Result struct {
	Item           *catalog.Item `json:"result"`
	Source         Source        `json:"source"`
	Stale          bool          `json:"stale"`
	Error          string        `json:"error,omitempty"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
}

// NoMatches reports the terminal "nothing matched" answer.
func (r Result) NoMatches() bool {
	return r.Item == nil && r.Source == SourceLive
}

// Degraded reports a result served from cache after a live failure.
func (r Result) Degraded() bool {
	return r.Item != nil && r.Source == SourceCache
}

// Unavailable reports that neither the catalog nor the cache could answer.
func (r Result) Unavailable() bool {
	return r.Item == nil && r.Source == SourceNone
}
