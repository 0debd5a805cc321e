// Package classify turns fetch and extraction outcomes into the small closed
// set of failure kinds the fallback logic reasons about.
package classify

import (
	"errors"

	"github.com/rohmanhakim/fic-roulette/internal/extractor"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
)

// Kind is the classification of one live catalog attempt.
type Kind int

const (
	None Kind = iota
	Timeout
	EmptyResponse
	NetworkError
	ParseError
	HTTPError
	Unknown
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Timeout:
		return "timeout"
	case EmptyResponse:
		return "empty_response"
	case NetworkError:
		return "network_error"
	case ParseError:
		return "parse_error"
	case HTTPError:
		return "http_error"
	case Unknown:
		return "unknown"
	}
	return "unknown"
}

// Reason is the stable, user-facing fallback reason for kind.
// None and Unknown share "unknown_error": a fallback without a concrete
// failure is itself unexplained.
func Reason(kind Kind) string {
	switch kind {
	case Timeout:
		return "ao3_timeout"
	case EmptyResponse:
		return "ao3_empty_response"
	case NetworkError:
		return "network_error"
	case HTTPError:
		return "ao3_http_error"
	case ParseError:
		return "ao3_parse_error"
	case None, Unknown:
		return "unknown_error"
	}
	return "unknown_error"
}

// FromPage classifies a fetch. Transport outcomes are checked before content.
func FromPage(result fetcher.PageResult) Kind {
	switch result.Status() {
	case fetcher.StatusTimedOut:
		return Timeout
	case fetcher.StatusTransport:
		return NetworkError
	case fetcher.StatusHTTP:
		return HTTPError
	case fetcher.StatusEmpty:
		return EmptyResponse
	case fetcher.StatusOK:
		return None
	}
	return Unknown
}

// FromExtraction classifies an extraction error. Anything that is not an
// extraction failure is unexpected.
func FromExtraction(err error) Kind {
	if err == nil {
		return None
	}
	var extractionErr *extractor.ExtractionError
	if errors.As(err, &extractionErr) {
		return ParseError
	}
	return Unknown
}
