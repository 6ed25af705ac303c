// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/models"
)

// maxIDAttempts bounds regeneration of colliding election IDs.
const maxIDAttempts = 10

const electionColumns = `id, name, class_name, branch, class_year, section,
	start_time, end_time, status, student_count, candidate_count,
	multi_vote, total_votes_per_voter, min_votes_male, min_votes_female,
	created_at, updated_at`

// Registry owns election records and their lifecycle status.
type Registry struct {
	q     db.Querier
	now   func() time.Time
	newID func() (string, error)
}

func New(q db.Querier) *Registry {
	return &Registry{q: q, now: time.Now, newID: auth.GenerateElectionID}
}

// SetIDGenerator replaces the source of new election IDs.
func (r *Registry) SetIDGenerator(gen func() (string, error)) {
	r.newID = gen
}

// SetClock replaces the time source used for lifecycle timestamps.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Registry) timestamp() time.Time {
	return r.now().UTC()
}

// ValidateConfig checks election rules and normalizes cfg in place.
func ValidateConfig(cfg *models.ElectionConfig) error {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return apperr.New(apperr.KindInvalidConfig, "name is required")
	}

	quota := cfg.MinVotesPerGender
	if quota.Male < 0 || quota.Female < 0 {
		return apperr.New(apperr.KindInvalidConfig, "gender minimums cannot be negative")
	}

	if cfg.MultiVote {
		if cfg.TotalVotesPerVoter < 1 {
			return apperr.New(apperr.KindInvalidConfig, "total votes per voter must be at least 1")
		}
		if quota.Active() && quota.Male+quota.Female != cfg.TotalVotesPerVoter {
			return apperr.New(apperr.KindInvalidConfig,
				"sum of male and female minimums (%d) must equal total votes per voter (%d)",
				quota.Male+quota.Female, cfg.TotalVotesPerVoter)
		}
	} else {
		if quota.Active() {
			return apperr.New(apperr.KindInvalidConfig, "gender minimums require multi-vote mode")
		}
		cfg.TotalVotesPerVoter = 1
	}

	return validateWindow(cfg.StartTime, cfg.EndTime)
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return apperr.New(apperr.KindInvalidConfig, "end time must be after start time")
	}
	return nil
}

// Create stores a new election in the created state under a fresh short ID.
func (r *Registry) Create(ctx context.Context, cfg models.ElectionConfig) (models.Election, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return models.Election{}, err
	}

	now := r.timestamp()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return models.Election{}, err
		}

		res, err := r.q.ExecContext(ctx, `
			INSERT INTO election (id, name, class_name, branch, class_year, section,
				start_time, end_time, status, student_count, candidate_count,
				multi_vote, total_votes_per_voter, min_votes_male, min_votes_female,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (id) DO NOTHING
		`, id, cfg.Name, cfg.ClassName, cfg.Branch, cfg.Year, cfg.Section,
			nullTime(cfg.StartTime), nullTime(cfg.EndTime), models.StatusCreated, 0, 0,
			cfg.MultiVote, cfg.TotalVotesPerVoter, cfg.MinVotesPerGender.Male, cfg.MinVotesPerGender.Female,
			now, now)
		if err != nil {
			return models.Election{}, fmt.Errorf("failed to insert election: %w", err)
		}
		// A conflicting ID inserts nothing and leaves any enclosing
		// transaction usable, so the next attempt can proceed.
		n, err := res.RowsAffected()
		if err != nil {
			return models.Election{}, fmt.Errorf("failed to check election insert: %w", err)
		}
		if n == 0 {
			slog.Debug("election ID collision, regenerating", "election_id", id, "attempt", attempt+1)
			continue
		}

		slog.Info("election created", "election_id", id, "multi_vote", cfg.MultiVote)
		return r.Get(ctx, id)
	}

	return models.Election{}, fmt.Errorf("failed to allocate a unique election ID after %d attempts", maxIDAttempts)
}

// Get returns the election or an apperr.KindNotFound error.
func (r *Registry) Get(ctx context.Context, id string) (models.Election, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, apperr.New(apperr.KindNotFound, "election %s not found", id)
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

// List returns all elections, newest first.
func (r *Registry) List(ctx context.Context) ([]models.Election, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+electionColumns+` FROM election ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate elections: %w", err)
	}
	return elections, nil
}

// SetCandidateCount stores the denormalized candidate count.
func (r *Registry) SetCandidateCount(ctx context.Context, id string, count int) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET candidate_count = $1, updated_at = $2 WHERE id = $3
	`, count, r.timestamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update candidate count: %w", err)
	}
	return requireRow(res, id)
}

// AddStudents increments the denormalized roster size by delta.
func (r *Registry) AddStudents(ctx context.Context, id string, delta int) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET student_count = student_count + $1, updated_at = $2 WHERE id = $3
	`, delta, r.timestamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update student count: %w", err)
	}
	return requireRow(res, id)
}

// SetWindow changes the planned voting window. Only created elections can be edited.
func (r *Registry) SetWindow(ctx context.Context, id string, start, end *time.Time) (models.Election, error) {
	if err := validateWindow(start, end); err != nil {
		return models.Election{}, err
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET start_time = $1, end_time = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`, nullTime(start), nullTime(end), r.timestamp(), id, models.StatusCreated)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to update election window: %w", err)
	}
	if err := r.explainNoop(ctx, res, id, apperr.KindElectionLocked, "election window cannot change after voting has started"); err != nil {
		return models.Election{}, err
	}

	slog.Info("election window updated", "election_id", id)
	return r.Get(ctx, id)
}

// LockCreated takes a write lock on a created election so candidate edits
// serialize against Open. It fails with KindElectionLocked once voting has started.
func (r *Registry) LockCreated(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET updated_at = $1 WHERE id = $2 AND status = $3
	`, r.timestamp(), id, models.StatusCreated)
	if err != nil {
		return fmt.Errorf("failed to lock election: %w", err)
	}
	return r.explainNoop(ctx, res, id, apperr.KindElectionLocked, "candidates cannot change after the election has started")
}

// Open moves a created election with at least one candidate to open and
// records the actual start time.
func (r *Registry) Open(ctx context.Context, id string) (models.Election, error) {
	now := r.timestamp()
	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET status = $1, start_time = $2, updated_at = $3
		WHERE id = $4 AND status = $5
		  AND EXISTS (SELECT 1 FROM roster_entry WHERE election_id = $6 AND is_candidate = $7)
	`, models.StatusOpen, now, now, id, models.StatusCreated, id, true)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to open election: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to open election: %w", err)
	}
	if n == 0 {
		e, err := r.Get(ctx, id)
		if err != nil {
			return models.Election{}, err
		}
		if e.Status != models.StatusCreated {
			return models.Election{}, apperr.New(apperr.KindInvalidTransition, "election is already %s", e.Status)
		}
		return models.Election{}, apperr.New(apperr.KindNoCandidates,
			"cannot start election without any candidates, please add candidates first")
	}

	slog.Info("election opened", "election_id", id)
	return r.Get(ctx, id)
}

// Close moves an open election to closed and records the end time.
func (r *Registry) Close(ctx context.Context, id string) (models.Election, error) {
	now := r.timestamp()
	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET status = $1, end_time = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`, models.StatusClosed, now, now, id, models.StatusOpen)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to close election: %w", err)
	}
	if err := r.explainNoop(ctx, res, id, apperr.KindInvalidTransition, "election is not currently open"); err != nil {
		return models.Election{}, err
	}

	slog.Info("election closed", "election_id", id)
	return r.Get(ctx, id)
}

// AutoCloseIfExpired closes an open election whose end time has passed and
// returns the election's current state. It is a no-op in every other case.
func (r *Registry) AutoCloseIfExpired(ctx context.Context, id string) (models.Election, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return models.Election{}, err
	}

	now := r.timestamp()
	if e.Status != models.StatusOpen || e.EndTime == nil || now.Before(*e.EndTime) {
		return e, nil
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE election SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4
	`, models.StatusClosed, now, id, models.StatusOpen)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to auto-close election: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("election auto-closed", "election_id", id, "end_time", e.EndTime)
	}

	e.Status = models.StatusClosed
	return e, nil
}

// Delete removes the election together with its roster and votes.
func (r *Registry) Delete(ctx context.Context, id string) error {
	err := db.RunInTx(ctx, r.q, func(tx db.Querier) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE election_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM roster_entry WHERE election_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete roster: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM election WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete election: %w", err)
		}
		return requireRow(res, id)
	})
	if err != nil {
		return err
	}

	slog.Info("election deleted", "election_id", id)
	return nil
}

// explainNoop turns a status-guarded UPDATE that touched no rows into
// KindNotFound or the given kind.
func (r *Registry) explainNoop(ctx context.Context, res sql.Result, id string, kind apperr.Kind, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return apperr.New(kind, "%s", msg)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, "election %s not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(s scanner) (models.Election, error) {
	var e models.Election
	var start, end sql.NullTime
	err := s.Scan(
		&e.ID, &e.Name, &e.ClassName, &e.Branch, &e.Year, &e.Section,
		&start, &end, &e.Status, &e.StudentCount, &e.CandidateCount,
		&e.MultiVote, &e.TotalVotesPerVoter, &e.MinVotesPerGender.Male, &e.MinVotesPerGender.Female,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return models.Election{}, err
	}
	if start.Valid {
		t := start.Time
		e.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		e.EndTime = &t
	}
	return e, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
