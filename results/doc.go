// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results aggregates the vote ledger into ranked, quota-aware results.

# Tally

	t, err := results.New(conn).Tally(ctx, electionID)

Every candidate appears in the tally, including those with no votes.
Results are sorted by vote count; ties keep the order candidates were
listed in the roster upload. TotalVotes counts vote rows and TotalVoters
counts distinct voters, so for a multi-vote election TotalVotes is
TotalVoters times TotalVotesPerVoter.

Compute and SelectWinners are pure functions over already-loaded rows and
are what the Aggregator methods call after reading the datastore.

# Winners

There are two policies and the election's quota picks one:

  - quota mode (any gender minimum set): per-gender winner lists, taking
    the top N male and top N female candidates where N is the minimum for
    that gender
  - overall mode: the single highest-voted candidate

# Turnout

Turnout compares the number of roster entries that have voted with the
roster size, and is safe to show while voting is open.
*/
package results
