// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot validates proposed ballots.

Validate has no side effects and performs no I/O. The vote ledger calls it
inside the casting transaction with the candidate list read in that same
transaction:

	err := ballot.Validate(election, candidates, []string{"R01", "R07"})

# Ballot Size

Single-vote elections take exactly one selection. Multi-vote elections take
exactly TotalVotesPerVoter selections, never fewer.

# Gender Quota

When MinVotesPerGender has any non-zero minimum, the selections are counted
by candidate gender. Only "Male" and "Female" count toward a bucket; other
values count toward neither.
*/
package ballot
