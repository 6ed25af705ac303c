// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Statements are executed one at a time and use only syntax accepted by
// both PostgreSQL and SQLite.
var schema = []string{
	// Elections
	`CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    class_name TEXT NOT NULL DEFAULT '',
    branch TEXT NOT NULL DEFAULT '',
    class_year INTEGER NOT NULL DEFAULT 0,
    section INTEGER NOT NULL DEFAULT 0,
    start_time TIMESTAMP,
    end_time TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'open', 'closed')),
    student_count INTEGER NOT NULL DEFAULT 0,
    candidate_count INTEGER NOT NULL DEFAULT 0,
    multi_vote BOOLEAN NOT NULL DEFAULT FALSE,
    total_votes_per_voter INTEGER NOT NULL DEFAULT 1 CHECK (total_votes_per_voter >= 1),
    min_votes_male INTEGER NOT NULL DEFAULT 0 CHECK (min_votes_male >= 0),
    min_votes_female INTEGER NOT NULL DEFAULT 0 CHECK (min_votes_female >= 0),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_election_status ON election(status)`,

	// Roster entries
	`CREATE TABLE IF NOT EXISTS roster_entry (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    list_order INTEGER NOT NULL,
    roll_number TEXT NOT NULL,
    name TEXT NOT NULL,
    contact TEXT NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    is_candidate BOOLEAN NOT NULL DEFAULT FALSE,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (election_id, roll_number),
    UNIQUE (election_id, contact)
)`,
	`CREATE INDEX IF NOT EXISTS idx_roster_entry_election ON roster_entry(election_id, list_order)`,
	`CREATE INDEX IF NOT EXISTS idx_roster_entry_contact ON roster_entry(election_id, contact)`,

	// Votes
	`CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_contact TEXT NOT NULL,
    candidate_roll_number TEXT NOT NULL,
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, voter_contact, candidate_roll_number)
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_election ON vote(election_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_candidate ON vote(election_id, candidate_roll_number)`,
}
