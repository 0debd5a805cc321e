// Package sampler performs the two live catalog steps of a random pick:
// resolving how many result pages a filter has, and drawing one work from a
// random page.
package sampler

import "github.com/rohmanhakim/fic-roulette/internal/classify"

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome is exactly one of Success(value), Empty, or Failure(kind).
type Outcome[T any] struct {
	kind    OutcomeKind
	value   T
	failure classify.Kind
}

func Success[T any](value T) Outcome[T] {
	return Outcome[T]{kind: OutcomeSuccess, value: value}
}

func Empty[T any]() Outcome[T] {
	return Outcome[T]{kind: OutcomeEmpty}
}

func Failure[T any](kind classify.Kind) Outcome[T] {
	return Outcome[T]{kind: OutcomeFailure, failure: kind}
}

func (o Outcome[T]) Kind() OutcomeKind {
	return o.kind
}

// Value returns the success value; ok is false for Empty and Failure.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.kind == OutcomeSuccess
}

// FailureKind is classify.None unless the outcome is a Failure.
func (o Outcome[T]) FailureKind() classify.Kind {
	return o.failure
}
