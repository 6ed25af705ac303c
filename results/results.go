// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/ledger"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
	"github.com/danielhkuo/classvote/roster"
)

// Aggregator tallies the ledger into ranked results. It reads with several
// goroutines and must be given a *sql.DB, not a transaction.
type Aggregator struct {
	registry *registry.Registry
	roster   *roster.Store
	ledger   *ledger.Ledger
}

func New(q db.Querier) *Aggregator {
	return &Aggregator{
		registry: registry.New(q),
		roster:   roster.New(q, ""),
		ledger:   ledger.New(q),
	}
}

// Tally counts votes per candidate for the election.
func (a *Aggregator) Tally(ctx context.Context, electionID string) (models.Tally, error) {
	if _, err := a.registry.Get(ctx, electionID); err != nil {
		return models.Tally{}, err
	}
	return a.tally(ctx, electionID)
}

func (a *Aggregator) tally(ctx context.Context, electionID string) (models.Tally, error) {
	var candidates []models.RosterEntry
	var votes []models.Vote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = a.roster.ListCandidates(gctx, electionID)
		return err
	})
	g.Go(func() error {
		var err error
		votes, err = a.ledger.VotesForElection(gctx, electionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Tally{}, err
	}

	return Compute(electionID, candidates, votes), nil
}

// Winners selects winners for the election; see SelectWinners.
func (a *Aggregator) Winners(ctx context.Context, electionID string) (models.Winners, error) {
	e, err := a.registry.Get(ctx, electionID)
	if err != nil {
		return models.Winners{}, err
	}
	t, err := a.tally(ctx, electionID)
	if err != nil {
		return models.Winners{}, err
	}
	return SelectWinners(e, t), nil
}

// Report returns the election, its tally and its winners from one read of the ledger.
func (a *Aggregator) Report(ctx context.Context, electionID string) (models.ResultsResponse, error) {
	e, err := a.registry.Get(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	t, err := a.tally(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	return models.ResultsResponse{
		Election: e,
		Tally:    t,
		Winners:  SelectWinners(e, t),
	}, nil
}

// Turnout reports how much of the roster has voted.
func (a *Aggregator) Turnout(ctx context.Context, electionID string) (models.Turnout, error) {
	e, err := a.registry.Get(ctx, electionID)
	if err != nil {
		return models.Turnout{}, err
	}
	voted, err := a.roster.CountVoted(ctx, electionID)
	if err != nil {
		return models.Turnout{}, err
	}

	t := models.Turnout{
		ElectionID:   electionID,
		StudentCount: e.StudentCount,
		VotersVoted:  voted,
	}
	if e.StudentCount > 0 {
		t.Ratio = float64(voted) / float64(e.StudentCount)
	}
	return t, nil
}

// Compute builds a tally from candidates in listing order and the vote rows.
// Candidates without votes are included with zero. Results are sorted by
// votes descending; ties keep listing order. Votes naming a roll number that
// is not a candidate are kept as extra rows after the candidates, ordered by
// roll number, so the per-row sum always equals TotalVotes.
func Compute(electionID string, candidates []models.RosterEntry, votes []models.Vote) models.Tally {
	counts := make(map[string]int, len(candidates))
	voters := make(map[string]bool)
	for _, v := range votes {
		counts[v.CandidateRollNumber]++
		voters[v.VoterContact] = true
	}

	results := make([]models.CandidateResult, 0, len(candidates))
	listed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		listed[c.RollNumber] = true
		results = append(results, models.CandidateResult{
			RollNumber: c.RollNumber,
			Name:       c.Name,
			Gender:     c.Gender,
			Votes:      counts[c.RollNumber],
		})
	}

	var unlisted []string
	for roll := range counts {
		if !listed[roll] {
			unlisted = append(unlisted, roll)
		}
	}
	sort.Strings(unlisted)
	for _, roll := range unlisted {
		results = append(results, models.CandidateResult{RollNumber: roll, Votes: counts[roll]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	return models.Tally{
		ElectionID:  electionID,
		Results:     results,
		TotalVotes:  len(votes),
		TotalVoters: len(voters),
	}
}

// SelectWinners applies the election's winner policy to a sorted tally.
//
// With a gender quota, the top MinVotesPerGender.Male male candidates and
// the top MinVotesPerGender.Female female candidates win. Without one, the
// single highest-voted candidate wins, provided anyone received a vote.
func SelectWinners(e models.Election, t models.Tally) models.Winners {
	quota := e.MinVotesPerGender
	if quota.Active() {
		return models.Winners{
			Mode:          models.WinnerModeQuota,
			MaleWinners:   topByGender(t.Results, models.GenderMale, quota.Male),
			FemaleWinners: topByGender(t.Results, models.GenderFemale, quota.Female),
		}
	}

	w := models.Winners{
		Mode:          models.WinnerModeOverall,
		MaleWinners:   []models.CandidateResult{},
		FemaleWinners: []models.CandidateResult{},
	}
	if len(t.Results) > 0 && t.Results[0].Votes > 0 {
		top := t.Results[0]
		w.Winner = &top
	}
	return w
}

func topByGender(sorted []models.CandidateResult, gender string, n int) []models.CandidateResult {
	winners := []models.CandidateResult{}
	for _, r := range sorted {
		if len(winners) == n {
			break
		}
		if r.Gender == gender {
			winners = append(winners, r)
		}
	}
	return winners
}
