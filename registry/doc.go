// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package registry stores elections and enforces their lifecycle.

# Lifecycle

	created ──Open──▶ open ──Close / AutoCloseIfExpired──▶ closed

Every transition is a single UPDATE guarded by the expected current status,
so concurrent callers cannot both win. When the guarded UPDATE touches no
row the registry re-reads the election to report apperr.KindNotFound or
the kind describing the conflict.

Open also requires at least one candidate in the same statement, which
keeps it atomic with roster.Store.ToggleCandidate: the toggle first calls
LockCreated, an UPDATE that only succeeds while the election is still
created.

# Configuration

ValidateConfig normalizes an ElectionConfig before it is stored:

  - single-vote elections always have TotalVotesPerVoter = 1 and no quota
  - multi-vote elections need TotalVotesPerVoter >= 1
  - a multi-vote quota must satisfy Male + Female == TotalVotesPerVoter
  - an end time, when both are set, must be after the start time

# Identifiers

Election IDs are six characters from [A-Z0-9] (see auth.GenerateElectionID).
Create retries on collision.
*/
package registry
