// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs one line per request with method, path, client_ip, status and duration_ms.

# Authentication

Admin routes require a bearer session token issued by POST /admin/login:

	mux.HandleFunc("POST /elections", middleware.WithLogging(
		middleware.RequireAdmin(cfg.SessionSecret, h.CreateElection)))

Voter routes read the X-Voter-Identity header, normalize it like a roster
contact and store it in the request context:

	identity, _ := auth.VoterFromContext(r.Context())

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Voter-Identity.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

WriteError maps apperr kinds onto status codes:

	not_found                                   → 404
	invalid_config                              → 400
	not_registered                              → 403
	invalid_transition, no_candidates,
	election_locked, already_voted,
	not_open_yet, ended                         → 409
	invalid_candidate, duplicate_candidate,
	wrong_ballot_size, quota_not_met            → 422
	anything else                               → 500 (logged, details hidden)

Parse JSON request bodies:

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
