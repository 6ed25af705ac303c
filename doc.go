// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ClassVote API server.

ClassVote runs classroom elections: an administrator uploads a class roster,
marks candidates, opens voting, and students cast one ballot each. Ballots
may hold several votes with per-gender minimums, and results are published
once voting ends.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=classvote.db ADMIN_USERNAME=admin \
	ADMIN_PASSWORD_HASH=$(go run ./cmd/hashpw 's3cret') \
	SESSION_SECRET=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-user admin ...

Values from a .env file in the working directory are loaded first. Real
environment variables take precedence over the file, and flags take
precedence over both.

# Configuration

Required settings:

  - DATABASE_URL (-d): Database file or connection string
  - ADMIN_USERNAME (-admin-user): Admin console login
  - ADMIN_PASSWORD_HASH (-admin-hash): bcrypt hash of the admin password
  - SESSION_SECRET (-session-secret): HMAC key for admin session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or pgx (default: sqlite)
  - SESSION_TTL (-session-ttl): Admin session lifetime (default: 12h)
  - PHONE_COUNTRY_CODE (-phone-cc): Prefix for bare 10-digit phone numbers (default: 91)

# Architecture

The domain core sits below a thin HTTP layer:

  - registry: Election lifecycle and configuration
  - roster: Roster entries, contact normalization, candidate flags
  - eligibility: Voter eligibility and ballot candidate lists
  - ballot: Ballot validation against the election rules
  - ledger: Atomic vote recording
  - results: Tallies, winners and turnout
  - handlers, router, middleware: HTTP surface
  - auth: Admin sessions and identifiers
  - apperr: Typed domain errors
  - db: Connections, schema and transactions
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
