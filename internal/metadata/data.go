package metadata

import "time"

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry or fallback decisions; those
	   belong to classify.Kind and the error types' IsRetryable.
	 - Packages MAY map their local errors to ErrorCause but MUST NOT
	   invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport or remote availability: timeouts, DNS failures, resets,
    browser disconnects.

# CauseRemoteRejected
  - The catalog answered with a non-2xx status: 429 throttling, 5xx,
    maintenance pages.

# CauseContentInvalid
  - Content was fetched but could not be used: empty bodies, pages without
    the expected search markers, broken blurbs.

# CauseStorageFailure
  - Cache persistence failed: disk full, permissions, corrupt files,
    database errors.

# CauseInvariantViolation
  - An internal consistency check failed.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseRemoteRejected
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseRemoteRejected:
		return "remote_rejected"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrPage       AttributeKey = "page"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrCacheKey   AttributeKey = "cache_key"
	AttrReason     AttributeKey = "reason"
	AttrMessage    AttributeKey = "message"
	AttrRequestID  AttributeKey = "request_id"
)

// CacheOp names the cache operation being recorded.
type CacheOp string

const (
	CacheOpGet   CacheOp = "get"
	CacheOpSet   CacheOp = "set"
	CacheOpClear CacheOp = "clear"
)

// OrchestrationEvent is the terminal summary of one "get a random work"
// call. It is recorded once per call and never read back.
type OrchestrationEvent struct {
	CacheKey       string
	Source         string
	Stale          bool
	FallbackReason string
	Error          string
	Duration       time.Duration
}
