// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"errors"
	"time"
)

// ErrSequenceExhausted means every candidate within the attempt bound was taken.
// The caller may retry the whole request.
var ErrSequenceExhausted = errors.New("sequence exhausted")

// Request describes one number allocation.
type Request struct {
	DocumentType DocumentType

	// AsOf selects the fiscal year. Zero means now.
	AsOf time.Time

	// Explicit is a caller-supplied number. Blank means auto-generate.
	Explicit string

	// CurrentNumber is the number the document already holds (updates only).
	// It never counts as a conflict for Explicit.
	CurrentNumber string
}

// PersistFunc stores the document under number. It must return an error
// matching ErrDuplicateNumber when the number is already taken.
type PersistFunc func(ctx context.Context, number string) error

// Generator assigns unique sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// Allocate returns a number that was free when checked.
	// Pattern: ORG/YYYY-YY/SEQ (e.g. JMD/2025-26/007)
	Allocate(ctx context.Context, req Request) (string, error)

	// AllocateAndStore proposes candidates and hands each to persist until one
	// is stored. Uniqueness is decided by the store at write time.
	AllocateAndStore(ctx context.Context, req Request, persist PersistFunc) (string, error)
}

// State is a step of the allocation state machine.
type State int

const (
	StateStart State = iota
	StatePrefixComputed
	StateCandidateProposed
	StateVerified
	StateRetryExhausted
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePrefixComputed:
		return "prefix_computed"
	case StateCandidateProposed:
		return "candidate_proposed"
	case StateVerified:
		return "verified"
	case StateRetryExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}
