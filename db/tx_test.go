// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := Open(ctx, TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

func insertElection(ctx context.Context, q Querier, id string) error {
	now := time.Now().UTC()
	_, err := q.ExecContext(ctx, `
		INSERT INTO election (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, id, "Class Representative", now, now)
	return err
}

func countElections(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM election`).Scan(&n); err != nil {
		t.Fatalf("Failed to count elections: %v", err)
	}
	return n
}

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := setupSQLite(t)
	if err := CreateSchema(context.Background(), conn); err != nil {
		t.Errorf("Second CreateSchema failed: %v", err)
	}
}

func TestRunInTxCommits(t *testing.T) {
	conn := setupSQLite(t)
	ctx := context.Background()

	err := RunInTx(ctx, conn, func(tx Querier) error {
		if err := insertElection(ctx, tx, "ABC123"); err != nil {
			return err
		}
		return insertElection(ctx, tx, "DEF456")
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}

	if n := countElections(t, conn); n != 2 {
		t.Errorf("Expected 2 committed elections, got %d", n)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	conn := setupSQLite(t)
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := RunInTx(ctx, conn, func(tx Querier) error {
		if err := insertElection(ctx, tx, "ABC123"); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("Expected fn error to be returned unchanged, got %v", err)
	}

	if n := countElections(t, conn); n != 0 {
		t.Errorf("Expected rollback to discard the insert, got %d elections", n)
	}
}

func TestRunInTxJoinsExistingTx(t *testing.T) {
	conn := setupSQLite(t)
	ctx := context.Background()

	outer, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	var joined Querier
	err = RunInTx(ctx, outer, func(tx Querier) error {
		joined = tx
		return insertElection(ctx, tx, "ABC123")
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}
	if joined != Querier(outer) {
		t.Error("Expected fn to receive the caller's transaction")
	}

	// Nothing was committed by the inner call, so rolling back the outer
	// transaction discards the insert
	if err := outer.Rollback(); err != nil {
		t.Fatal(err)
	}
	if n := countElections(t, conn); n != 0 {
		t.Errorf("Expected joined insert to be rolled back with the outer tx, got %d", n)
	}
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	conn := setupSQLite(t)
	ctx := context.Background()

	if err := insertElection(ctx, conn, "ABC123"); err != nil {
		t.Fatal(err)
	}

	err := insertElection(ctx, conn, "ABC123")
	if err == nil {
		t.Fatal("Expected duplicate primary key to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}
	if !IsUniqueViolation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("Expected wrapped error to be recognized")
	}

	// CHECK constraint failures are not unique violations
	now := time.Now().UTC()
	_, err = conn.ExecContext(ctx, `
		INSERT INTO election (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, "XYZ789", "Bad Status", "paused", now, now)
	if err == nil {
		t.Fatal("Expected check constraint to fail")
	}
	if IsUniqueViolation(err) {
		t.Errorf("Expected check violation not to count as unique, got %v", err)
	}
}

func TestIsUniqueViolationPostgresErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"pq foreign key", &pq.Error{Code: "23503"}, false},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true},
		{"pgx wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx not null", &pgconn.PgError{Code: "23502"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
