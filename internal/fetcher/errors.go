package fetcher

import (
	"fmt"
	"net/url"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseEmptyBody             = "empty response body"
	ErrCauseRequestTooMany        = "too many requests"
	ErrCauseRequest5xx            = "5xx"
	ErrCauseRequestRejected       = "non-2xx status"
	ErrCauseBrowserUnavailable    = "browser unavailable"
	ErrCauseDecodeFailure         = "failed to decode response"
)

type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fetcher error: %s", e.Cause)
	}
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError, ErrCauseBrowserUnavailable:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequest5xx, ErrCauseRequestRejected:
		return metadata.CauseRemoteRejected
	case ErrCauseEmptyBody, ErrCauseDecodeFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}

// toPageResult folds a fetch failure into the value the classifier reads.
func toPageResult(fetchUrl url.URL, err *FetchError) PageResult {
	switch err.Cause {
	case ErrCauseTimeout:
		return NewTimedOutResult(fetchUrl, err.Error())
	case ErrCauseEmptyBody:
		return NewEmptyResult(fetchUrl, err.StatusCode)
	case ErrCauseRequestTooMany, ErrCauseRequest5xx, ErrCauseRequestRejected:
		return NewHTTPStatusResult(fetchUrl, err.StatusCode, err.Error())
	default:
		return NewTransportResult(fetchUrl, err.Error())
	}
}
