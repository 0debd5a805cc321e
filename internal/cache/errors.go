package cache

import (
	"fmt"
	"time"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseReadFailure   = "read failed"
	ErrCauseWriteFailure  = "write failed"
	ErrCauseCorruptEntry  = "corrupt entry"
	ErrCauseEncodeFailure = "encode failed"
	ErrCauseInvalidKey    = "invalid key"
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
	Path      string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s", e.Cause)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapCacheErrorToMetadataCause maps cache-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseReadFailure, ErrCauseWriteFailure, ErrCauseCorruptEntry:
		return metadata.CauseStorageFailure
	case ErrCauseEncodeFailure, ErrCauseInvalidKey:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}

func recordCacheError(sink metadata.MetadataSink, action string, key Key, err *CacheError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrCacheKey, key.String()),
		metadata.NewAttr(metadata.AttrMessage, err.Message),
	}
	if err.Path != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrPath, err.Path))
	}
	sink.RecordError(
		time.Now(),
		"cache",
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}
