// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records cast votes and guarantees at most one ballot per voter.

# Casting

	receipt, err := ledger.New(conn).CastVote(ctx, electionID, "alice@example.edu", []string{"R03"})

CastVote runs in one transaction:

  1. re-check eligibility (election open, identity registered, not voted)
  2. re-read the candidate list and run ballot.Validate
  3. claim the voter: UPDATE ... SET has_voted = TRUE WHERE has_voted = FALSE
  4. insert one vote row per selected candidate, all with the same cast_at

If step 3 affects no rows, a concurrent ballot for the same voter has
already committed and the call fails with apperr.KindAlreadyVoted. Any
failure rolls back the whole transaction, so has_voted is never set without
the matching vote rows.

# Time

CastVote does not look at the clock to decide whether voting has ended; it
only checks status. Callers close expired elections first with
registry.AutoCloseIfExpired.
*/
package ledger
