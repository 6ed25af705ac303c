// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ClassVote API.

# Handler Types

Each handler is a struct built from the database connection and config:

  - AuthHandler: Admin login
  - ElectionHandler: Election lifecycle, roster and candidate management, live results
  - BallotHandler: Public ballot, eligibility, vote casting, sealed results and turnout

	electionHandler := handlers.NewElectionHandler(db, cfg)

Handlers translate HTTP to calls on the registry, roster, eligibility,
ledger and results packages and map their errors with middleware.WriteError.

# Election Lifecycle

Elections progress through three states: created → open → closed

	POST /elections                            → CreateElection (with optional roster)
	POST /elections/{id}/roster                → UploadRoster (created or open)
	POST /elections/{id}/candidates/{key}/toggle → ToggleCandidate (created only)
	POST /elections/{id}/open                  → OpenElection (needs a candidate)
	POST /elections/{id}/close                 → CloseElection

Admin operations require an Authorization: Bearer token from POST /admin/login.

# Voting Flow

Voters identify with the contact on the roster:

	GET  /ballot/{id}             → GetBallot
	GET  /ballot/{id}/eligibility → CheckEligibility
	POST /ballot/{id}/votes       → CastVote

Voter operations require the X-Voter-Identity header.

# Time

Public routes and the admin read routes call registry.AutoCloseIfExpired
first, so an election whose end time has passed is observed (and stored)
as closed.

# Results

GET /ballot/{id}/results returns 403 until the election is closed.
GET /elections/{id}/results shows the admin live counts at any time.
*/
package handlers
