// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by every voting component.

# Kinds

Each failure carries a Kind that callers switch on:

	err := ledger.CastVote(ctx, electionID, voter, rolls)
	switch apperr.KindOf(err) {
	case apperr.KindAlreadyVoted:
		// render "you have already voted"
	case apperr.KindQuotaNotMet:
		// ask for a corrected ballot
	}

Sentinels exist for every kind so errors.Is works without inspecting
messages:

	if errors.Is(err, apperr.ErrNotFound) { ... }

None of the kinds are transient. Every one of them is a caller-correctable
input or state error, so nothing here is ever retried.

Errors that come from the datastore itself are not given a kind; KindOf
returns the empty Kind for them and the HTTP layer reports them as 500s.
*/
package apperr
