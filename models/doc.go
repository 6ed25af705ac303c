// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain and wire types for the classvote API.

# Domain Types

  - Election: rules, time window and lifecycle status of one election
  - RosterEntry: one voter/candidate row scoped to a single election
  - Candidate: public projection of a roster entry marked as candidate
  - Vote: one (voter, selected candidate) row in the ledger

A multi-vote ballot produces several Vote rows that share CastAt.

# Status Values

Elections move strictly forward:

	StatusCreated → StatusOpen → StatusClosed

# Gender

Gender is free-form text on a roster entry. Only the canonical values
GenderMale and GenderFemale take part in quota arithmetic; roster writes
normalize common spellings to them.

# Privacy

Vote.VoterContact is tagged json:"-" and never leaves the server. The
Candidate and Voter projections leave out contact identities.

# Request/Response Types

Each endpoint has a request and/or response struct, named after the
operation:

	CreateElectionRequest  → CreateElectionResponse
	CastVoteRequest        → CastVoteResponse
	LoginRequest           → LoginResponse

Errors are returned as ErrorResponse with the taxonomy kind attached.
*/
package models
