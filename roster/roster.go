// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
)

const entryColumns = `id, election_id, roll_number, name, contact, gender, is_candidate, has_voted`

// Store owns per-election roster entries.
type Store struct {
	q           db.Querier
	countryCode string
}

// New returns a Store. countryCode is used to normalize phone contacts on
// upload; empty means DefaultCountryCode.
func New(q db.Querier, countryCode string) *Store {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Store{q: q, countryCode: countryCode}
}

// BulkInsert adds rows to an election's roster as non-candidates who have
// not voted. Rows that fail validation are skipped and reported; the rest
// are inserted.
func (s *Store) BulkInsert(ctx context.Context, electionID string, rows []models.RosterRow) (models.BulkInsertResult, error) {
	result := models.BulkInsertResult{Total: len(rows), RowErrors: []models.RowError{}}

	err := db.RunInTx(ctx, s.q, func(tx db.Querier) error {
		reg := registry.New(tx)
		e, err := reg.Get(ctx, electionID)
		if err != nil {
			return err
		}
		if e.Status == models.StatusClosed {
			return apperr.New(apperr.KindElectionLocked, "cannot add voters to a closed election")
		}

		existing, err := New(tx, s.countryCode).ListAll(ctx, electionID)
		if err != nil {
			return err
		}
		rolls := make(map[string]bool, len(existing)+len(rows))
		contacts := make(map[string]bool, len(existing)+len(rows))
		for _, entry := range existing {
			rolls[entry.RollNumber] = true
			contacts[entry.Contact] = true
		}

		order := len(existing)
		for i, row := range rows {
			entry, reason := s.prepare(row)
			if reason == "" && rolls[entry.RollNumber] {
				reason = "duplicate roll number"
			}
			if reason == "" && contacts[entry.Contact] {
				reason = "duplicate contact"
			}
			if reason != "" {
				result.RowErrors = append(result.RowErrors, models.RowError{
					Row:        i + 1,
					RollNumber: strings.TrimSpace(row.RollNumber),
					Reason:     reason,
				})
				continue
			}

			inserted, err := insertEntry(ctx, tx, electionID, order, entry)
			if err != nil {
				return err
			}
			if !inserted {
				// Another upload stored the same roll number or contact first
				result.RowErrors = append(result.RowErrors, models.RowError{
					Row:        i + 1,
					RollNumber: entry.RollNumber,
					Reason:     "duplicate roll number or contact",
				})
				continue
			}

			order++
			rolls[entry.RollNumber] = true
			contacts[entry.Contact] = true
			result.Processed++
		}

		if result.Processed > 0 {
			return reg.AddStudents(ctx, electionID, result.Processed)
		}
		return nil
	})
	if err != nil {
		return models.BulkInsertResult{}, err
	}

	if len(result.RowErrors) > 0 {
		slog.Warn("roster rows skipped", "election_id", electionID, "skipped", len(result.RowErrors))
	}
	slog.Info("roster uploaded", "election_id", electionID, "processed", result.Processed, "total", result.Total)
	return result, nil
}

// insertEntry stores entry at the given list position. It reports false
// without error when the roll number or contact is already taken.
func insertEntry(ctx context.Context, q db.Querier, electionID string, order int, entry models.RosterEntry) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO roster_entry (id, election_id, list_order, roll_number, name, contact, gender, is_candidate, has_voted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`, uuid.NewString(), electionID, order, entry.RollNumber, entry.Name, entry.Contact, entry.Gender, false, false)
	if err != nil {
		return false, fmt.Errorf("failed to insert roster entry %s: %w", entry.RollNumber, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check roster insert: %w", err)
	}
	return n == 1, nil
}

// prepare normalizes a row, returning a non-empty reason if it is unusable.
func (s *Store) prepare(row models.RosterRow) (models.RosterEntry, string) {
	entry := models.RosterEntry{
		RollNumber: strings.TrimSpace(row.RollNumber),
		Name:       strings.TrimSpace(row.Name),
		Gender:     NormalizeGender(row.Gender),
	}
	if entry.RollNumber == "" {
		return entry, "missing roll number"
	}
	if entry.Name == "" {
		return entry, "missing name"
	}

	contact, err := NormalizeContact(row.Contact, s.countryCode)
	if err != nil {
		return entry, err.Error()
	}
	entry.Contact = contact
	return entry, ""
}

// ToggleCandidate flips the candidate flag of the entry matching key (a roll
// number or entry ID) and recomputes the election's candidate count.
func (s *Store) ToggleCandidate(ctx context.Context, electionID, key string) (models.RosterEntry, int, error) {
	var entry models.RosterEntry
	var count int

	err := db.RunInTx(ctx, s.q, func(tx db.Querier) error {
		reg := registry.New(tx)
		if err := reg.LockCreated(ctx, electionID); err != nil {
			return err
		}

		store := New(tx, s.countryCode)
		var err error
		entry, err = store.findByKey(ctx, electionID, key)
		if err != nil {
			return err
		}

		entry.IsCandidate = !entry.IsCandidate
		_, err = tx.ExecContext(ctx, `
			UPDATE roster_entry SET is_candidate = $1 WHERE id = $2
		`, entry.IsCandidate, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to toggle candidate: %w", err)
		}

		count, err = store.CountCandidates(ctx, electionID)
		if err != nil {
			return err
		}
		return reg.SetCandidateCount(ctx, electionID, count)
	})
	if err != nil {
		return models.RosterEntry{}, 0, err
	}

	slog.Info("candidate toggled", "election_id", electionID, "roll_number", entry.RollNumber,
		"is_candidate", entry.IsCandidate, "candidate_count", count)
	return entry, count, nil
}

func (s *Store) findByKey(ctx context.Context, electionID, key string) (models.RosterEntry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM roster_entry
		WHERE election_id = $1 AND (roll_number = $2 OR id = $3)
		ORDER BY list_order
		LIMIT 1
	`, electionID, key, key)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RosterEntry{}, apperr.New(apperr.KindNotFound, "roster entry %s not found", key)
	}
	if err != nil {
		return models.RosterEntry{}, fmt.Errorf("failed to query roster entry: %w", err)
	}
	return entry, nil
}

// FindByIdentity returns the entry whose contact matches identity after
// normalization, or an apperr.KindNotFound error.
func (s *Store) FindByIdentity(ctx context.Context, electionID, identity string) (models.RosterEntry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM roster_entry
		WHERE election_id = $1 AND contact = $2
	`, electionID, NormalizeIdentity(identity, s.countryCode))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RosterEntry{}, apperr.New(apperr.KindNotFound, "identity not registered for election %s", electionID)
	}
	if err != nil {
		return models.RosterEntry{}, fmt.Errorf("failed to query roster entry: %w", err)
	}
	return entry, nil
}

// ListCandidates returns candidates in upload order.
func (s *Store) ListCandidates(ctx context.Context, electionID string) ([]models.RosterEntry, error) {
	return s.list(ctx, `
		SELECT `+entryColumns+` FROM roster_entry
		WHERE election_id = $1 AND is_candidate = $2
		ORDER BY list_order
	`, electionID, true)
}

// ListAll returns every roster entry in upload order.
func (s *Store) ListAll(ctx context.Context, electionID string) ([]models.RosterEntry, error) {
	return s.list(ctx, `
		SELECT `+entryColumns+` FROM roster_entry
		WHERE election_id = $1
		ORDER BY list_order
	`, electionID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.RosterEntry, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	entries := []models.RosterEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster: %w", err)
	}
	return entries, nil
}

func (s *Store) CountCandidates(ctx context.Context, electionID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_entry WHERE election_id = $1 AND is_candidate = $2
	`, electionID, true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return count, nil
}

func (s *Store) CountVoted(ctx context.Context, electionID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_entry WHERE election_id = $1 AND has_voted = $2
	`, electionID, true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return count, nil
}

// MarkVoted sets has_voted for the entry with the given contact, but only if
// it is still unset. It reports whether this call made the change; false
// means another ballot for the same voter already claimed it.
func (s *Store) MarkVoted(ctx context.Context, electionID, contact string) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE roster_entry SET has_voted = $1
		WHERE election_id = $2 AND contact = $3 AND has_voted = $4
	`, true, electionID, contact, false)
	if err != nil {
		return false, fmt.Errorf("failed to mark voter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark voter: %w", err)
	}
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.RosterEntry, error) {
	var e models.RosterEntry
	err := s.Scan(&e.ID, &e.ElectionID, &e.RollNumber, &e.Name, &e.Contact, &e.Gender, &e.IsCandidate, &e.HasVoted)
	return e, err
}
