package extractor

import (
	"fmt"

	"github.com/rohmanhakim/fic-roulette/internal/metadata"
	"github.com/rohmanhakim/fic-roulette/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseUnparseable     = "unparseable document"
	ErrCauseInvalidCount    = "invalid result count"
	ErrCauseNotAResultsPage = "not a search results page"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseUnparseable, ErrCauseInvalidCount, ErrCauseNotAResultsPage:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
