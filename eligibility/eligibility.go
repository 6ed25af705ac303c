// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eligibility

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
	"github.com/danielhkuo/classvote/roster"
)

// Result is the outcome of an eligibility check. Ineligibility is data, not
// an error: Reason is one of KindNotFound, KindNotOpenYet, KindEnded,
// KindNotRegistered or KindAlreadyVoted.
type Result struct {
	Eligible bool
	Reason   apperr.Kind
	Message  string
	Election *models.Election
	Entry    *models.RosterEntry
}

// Err converts an ineligible result into a taxonomy error. It returns nil
// for eligible results.
func (r Result) Err() error {
	if r.Eligible {
		return nil
	}
	return apperr.New(r.Reason, "%s", r.Message)
}

// Resolver decides who may vote and who may be voted for.
type Resolver struct {
	registry *registry.Registry
	roster   *roster.Store
	now      func() time.Time
}

func New(reg *registry.Registry, store *roster.Store) *Resolver {
	return &Resolver{registry: reg, roster: store, now: time.Now}
}

// CheckEligibility reports whether identity may cast a ballot in the election
// right now. Only datastore failures are returned as errors.
func (r *Resolver) CheckEligibility(ctx context.Context, electionID, identity string) (Result, error) {
	e, err := r.registry.Get(ctx, electionID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return Result{Reason: apperr.KindNotFound, Message: "Election not found."}, nil
	}
	if err != nil {
		return Result{}, err
	}

	switch e.Status {
	case models.StatusCreated:
		return Result{Reason: apperr.KindNotOpenYet, Message: r.notOpenMessage(e), Election: &e}, nil
	case models.StatusClosed:
		return Result{Reason: apperr.KindEnded, Message: r.endedMessage(e), Election: &e}, nil
	}

	entry, err := r.roster.FindByIdentity(ctx, electionID, identity)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return Result{
			Reason:   apperr.KindNotRegistered,
			Message:  "Your contact is not registered for this election.",
			Election: &e,
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if entry.HasVoted {
		return Result{
			Reason:   apperr.KindAlreadyVoted,
			Message:  "You have already voted in this election.",
			Election: &e,
			Entry:    &entry,
		}, nil
	}

	return Result{Eligible: true, Election: &e, Entry: &entry}, nil
}

func (r *Resolver) notOpenMessage(e models.Election) string {
	if e.StartTime != nil && e.StartTime.After(r.now()) {
		return "Voting has not started yet. It is scheduled to open " + humanize.Time(*e.StartTime) + "."
	}
	return "Voting has not started yet."
}

func (r *Resolver) endedMessage(e models.Election) string {
	if e.EndTime != nil && !e.EndTime.After(r.now()) {
		return "Voting ended " + humanize.Time(*e.EndTime) + "."
	}
	return "Voting has ended."
}

// ListBallotCandidates returns the election's candidates without contact
// or voting details.
func (r *Resolver) ListBallotCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	if _, err := r.registry.Get(ctx, electionID); err != nil {
		return nil, err
	}

	entries, err := r.roster.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, models.Candidate{
			RollNumber: e.RollNumber,
			Name:       e.Name,
			Gender:     e.Gender,
		})
	}
	return candidates, nil
}
