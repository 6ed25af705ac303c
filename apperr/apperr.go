// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindNoCandidates      Kind = "no_candidates"
	KindElectionLocked    Kind = "election_locked"
	KindInvalidConfig     Kind = "invalid_config"

	// Eligibility reasons
	KindNotRegistered Kind = "not_registered"
	KindAlreadyVoted  Kind = "already_voted"
	KindNotOpenYet    Kind = "not_open_yet"
	KindEnded         Kind = "ended"

	// Ballot validation
	KindInvalidCandidate   Kind = "invalid_candidate"
	KindDuplicateCandidate Kind = "duplicate_candidate"
	KindWrongBallotSize    Kind = "wrong_ballot_size"
	KindQuotaNotMet        Kind = "quota_not_met"
)

// Error is a taxonomy-coded failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrNoCandidates       = &Error{Kind: KindNoCandidates}
	ErrElectionLocked     = &Error{Kind: KindElectionLocked}
	ErrInvalidConfig      = &Error{Kind: KindInvalidConfig}
	ErrNotRegistered      = &Error{Kind: KindNotRegistered}
	ErrAlreadyVoted       = &Error{Kind: KindAlreadyVoted}
	ErrNotOpenYet         = &Error{Kind: KindNotOpenYet}
	ErrEnded              = &Error{Kind: KindEnded}
	ErrInvalidCandidate   = &Error{Kind: KindInvalidCandidate}
	ErrDuplicateCandidate = &Error{Kind: KindDuplicateCandidate}
	ErrWrongBallotSize    = &Error{Kind: KindWrongBallotSize}
	ErrQuotaNotMet        = &Error{Kind: KindQuotaNotMet}
)

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
