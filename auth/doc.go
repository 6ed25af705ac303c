// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, admin authentication and request sessions.

# Election IDs

Election IDs are 6-character codes from [A-Z0-9] that students can type:

	id, err := auth.GenerateElectionID()  // e.g. "K7Q2ZD"

The registry checks each code against existing elections and regenerates
on collision.

# Admin Login

The admin console has a single configured account. The password is stored
as a bcrypt hash (see cmd/hashpw):

	err := auth.CheckAdminCredentials(user, pass, cfg.AdminUsername, cfg.AdminPasswordHash)

# Sessions

A successful login yields an HS256 JWT:

	token, session, err := auth.IssueSession(user, cfg.SessionSecret, cfg.SessionTTL)
	session, err := auth.ParseSession(token, cfg.SessionSecret)

Sessions travel through the request context rather than any global state:

	ctx = auth.WithSession(ctx, session)
	session, ok := auth.SessionFromContext(ctx)

# Voter Identity

Voters are authenticated by an external provider (OAuth, phone OTP). The
verified contact identity it supplies is carried the same way:

	ctx = auth.WithVoter(ctx, "alice@example.edu")
	identity, ok := auth.VoterFromContext(ctx)

This package does not verify voter credentials itself.
*/
package auth
