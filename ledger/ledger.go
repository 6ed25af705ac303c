// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/ballot"
	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/eligibility"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
	"github.com/danielhkuo/classvote/roster"
)

const voteColumns = `id, election_id, voter_contact, candidate_roll_number, cast_at`

// Ledger is the append-only record of cast votes.
type Ledger struct {
	q           db.Querier
	now         func() time.Time
	countryCode string
}

func New(q db.Querier) *Ledger {
	return &Ledger{q: q, now: time.Now, countryCode: roster.DefaultCountryCode}
}

// SetClock replaces the time source used for cast_at.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// SetCountryCode sets the prefix used to normalize phone identities.
func (l *Ledger) SetCountryCode(cc string) {
	if cc != "" {
		l.countryCode = cc
	}
}

// Receipt describes a successfully recorded ballot.
type Receipt struct {
	ElectionID string
	RollNumber string // the voter's own roll number
	Votes      []models.Vote
	CastAt     time.Time
}

// CastVote records a ballot for voterIdentity. Eligibility and ballot rules
// are evaluated inside the same transaction that writes the votes, and the
// voter is claimed with a conditional update, so concurrent ballots from
// one voter produce exactly one success; the others fail with
// KindAlreadyVoted. On any failure nothing is written.
func (l *Ledger) CastVote(ctx context.Context, electionID, voterIdentity string, candidateRollNumbers []string) (Receipt, error) {
	var receipt Receipt

	err := db.RunInTx(ctx, l.q, func(tx db.Querier) error {
		reg := registry.New(tx)
		store := roster.New(tx, l.countryCode)
		resolver := eligibility.New(reg, store)

		result, err := resolver.CheckEligibility(ctx, electionID, voterIdentity)
		if err != nil {
			return err
		}
		if !result.Eligible {
			return result.Err()
		}

		candidates, err := resolver.ListBallotCandidates(ctx, electionID)
		if err != nil {
			return err
		}
		if err := ballot.Validate(*result.Election, candidates, candidateRollNumbers); err != nil {
			return err
		}

		claimed, err := store.MarkVoted(ctx, electionID, result.Entry.Contact)
		if err != nil {
			return err
		}
		if !claimed {
			return apperr.New(apperr.KindAlreadyVoted, "You have already voted in this election.")
		}

		castAt := l.now().UTC()
		votes := make([]models.Vote, 0, len(candidateRollNumbers))
		for _, roll := range candidateRollNumbers {
			v := models.Vote{
				ID:                  uuid.NewString(),
				ElectionID:          electionID,
				VoterContact:        result.Entry.Contact,
				CandidateRollNumber: roll,
				CastAt:              castAt,
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vote (id, election_id, voter_contact, candidate_roll_number, cast_at)
				VALUES ($1, $2, $3, $4, $5)
			`, v.ID, v.ElectionID, v.VoterContact, v.CandidateRollNumber, v.CastAt)
			if db.IsUniqueViolation(err) {
				// A vote row from this voter already exists
				return apperr.New(apperr.KindAlreadyVoted, "You have already voted in this election.")
			}
			if err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
			votes = append(votes, v)
		}

		receipt = Receipt{
			ElectionID: electionID,
			RollNumber: result.Entry.RollNumber,
			Votes:      votes,
			CastAt:     castAt,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	slog.Info("ballot cast", "election_id", electionID, "voter_roll_number", receipt.RollNumber, "votes", len(receipt.Votes))
	return receipt, nil
}

// VotesForElection returns every vote in the election in cast order.
func (l *Ledger) VotesForElection(ctx context.Context, electionID string) ([]models.Vote, error) {
	return l.list(ctx, `
		SELECT `+voteColumns+` FROM vote
		WHERE election_id = $1
		ORDER BY cast_at, id
	`, electionID)
}

// VotesForCandidate returns the votes naming one candidate.
func (l *Ledger) VotesForCandidate(ctx context.Context, electionID, rollNumber string) ([]models.Vote, error) {
	return l.list(ctx, `
		SELECT `+voteColumns+` FROM vote
		WHERE election_id = $1 AND candidate_roll_number = $2
		ORDER BY cast_at, id
	`, electionID, rollNumber)
}

func (l *Ledger) list(ctx context.Context, query string, args ...any) ([]models.Vote, error) {
	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.ElectionID, &v.VoterContact, &v.CandidateRollNumber, &v.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}
