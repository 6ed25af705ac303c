// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ClassVote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Admin session:

	POST /admin/login - Exchange username and password for a bearer token

Election management (admin, requires Authorization: Bearer):

	POST   /elections                              - Create election with optional roster
	GET    /elections                              - List elections
	GET    /elections/{id}                         - Election details
	DELETE /elections/{id}                         - Delete election, roster and votes
	PUT    /elections/{id}/window                  - Set planned start and end
	POST   /elections/{id}/open                    - Start voting
	POST   /elections/{id}/close                   - End voting
	POST   /elections/{id}/roster                  - Append roster rows
	GET    /elections/{id}/roster                  - List roster
	POST   /elections/{id}/candidates/{key}/toggle - Flip candidate flag
	GET    /elections/{id}/results                 - Live results

Voting (public, requires X-Voter-Identity):

	GET  /ballot/{id}/eligibility - Can this voter vote?
	POST /ballot/{id}/votes       - Cast ballot

Public reads:

	GET /ballot/{id}         - Election and candidates
	GET /ballot/{id}/results - Final results (closed only)
	GET /ballot/{id}/turnout - Voters voted out of roster size
*/
package router
