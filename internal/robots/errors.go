package robots

import (
	"fmt"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCausePreFetchFailure     RobotsErrorCause = "pre-fetch failure"
	ErrCauseHttpFetchFailure    RobotsErrorCause = "http fetch failure"
	ErrCauseHttpTooManyRequests RobotsErrorCause = "too many requests"
	ErrCauseHttpServerError     RobotsErrorCause = "server error"
	ErrCauseReadFailure         RobotsErrorCause = "read failure"
)

type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
}

func (e *RobotsError) Error() string {
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapRobotsErrorToMetadataCause maps robots-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRobotsErrorToMetadataCause(err *RobotsError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHttpFetchFailure, ErrCauseReadFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseHttpTooManyRequests, ErrCauseHttpServerError:
		return metadata.CauseRemoteRejected
	case ErrCausePreFetchFailure:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
