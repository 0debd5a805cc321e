package failure

import "errors"

type Severity int

// orchestrator control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// Retryable is implemented by errors that know whether repeating the same
// operation could succeed.
type Retryable interface {
	IsRetryable() bool
}

// IsRetryable reports whether err, or any error it wraps, asks to be retried.
// Errors that carry no retry information are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
