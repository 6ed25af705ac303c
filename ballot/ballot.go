// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/models"
)

// Validate checks a proposed ballot against the election's rules and the
// authoritative candidate list. The election's stored vote rules are
// re-checked first (KindInvalidConfig). Ballot checks then run in a fixed
// order and the first failure is returned:
//
//  1. every roll number is a candidate (KindInvalidCandidate)
//  2. no roll number appears twice (KindDuplicateCandidate)
//  3. the ballot has exactly 1 selection, or exactly TotalVotesPerVoter in
//     multi-vote mode (KindWrongBallotSize)
//  4. gender minimums are met when a quota is set (KindQuotaNotMet)
func Validate(e models.Election, candidates []models.Candidate, proposed []string) error {
	if err := checkRules(e); err != nil {
		return err
	}

	byRoll := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		byRoll[c.RollNumber] = c
	}

	for _, roll := range proposed {
		if _, ok := byRoll[roll]; !ok {
			return apperr.New(apperr.KindInvalidCandidate, "invalid candidate: %s", roll)
		}
	}

	seen := make(map[string]bool, len(proposed))
	for _, roll := range proposed {
		if seen[roll] {
			return apperr.New(apperr.KindDuplicateCandidate, "candidate %s selected more than once", roll)
		}
		seen[roll] = true
	}

	if e.MultiVote {
		if len(proposed) == 0 || len(proposed) != e.TotalVotesPerVoter {
			return apperr.New(apperr.KindWrongBallotSize, "you must select exactly %d candidates", e.TotalVotesPerVoter)
		}
	} else if len(proposed) != 1 {
		return apperr.New(apperr.KindWrongBallotSize, "you must select exactly one candidate")
	}

	quota := e.MinVotesPerGender
	if quota.Active() {
		var male, female int
		for _, roll := range proposed {
			switch byRoll[roll].Gender {
			case models.GenderMale:
				male++
			case models.GenderFemale:
				female++
			}
		}
		if male < quota.Male {
			return apperr.New(apperr.KindQuotaNotMet, "you must vote for at least %d male candidates", quota.Male)
		}
		if female < quota.Female {
			return apperr.New(apperr.KindQuotaNotMet, "you must vote for at least %d female candidates", quota.Female)
		}
	}

	return nil
}

// checkRules rejects vote rules no ballot could satisfy.
func checkRules(e models.Election) error {
	quota := e.MinVotesPerGender
	if quota.Male < 0 || quota.Female < 0 {
		return apperr.New(apperr.KindInvalidConfig, "election has negative gender minimums")
	}
	if !e.MultiVote {
		if quota.Active() {
			return apperr.New(apperr.KindInvalidConfig, "single-vote election has gender minimums")
		}
		return nil
	}
	if e.TotalVotesPerVoter < 1 {
		return apperr.New(apperr.KindInvalidConfig, "election allows no votes per voter")
	}
	if quota.Active() && quota.Male+quota.Female != e.TotalVotesPerVoter {
		return apperr.New(apperr.KindInvalidConfig,
			"election gender minimums (%d) do not match total votes per voter (%d)",
			quota.Male+quota.Female, e.TotalVotesPerVoter)
	}
	return nil
}
