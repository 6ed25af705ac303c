// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and transactions.

# Drivers

Three database types are supported, selected by configuration:

  - sqlite: modernc.org/sqlite (pure Go, default, used by tests)
  - postgres: github.com/lib/pq
  - pgx: github.com/jackc/pgx/v5/stdlib

All SQL in this module uses $N placeholders and syntax common to
PostgreSQL and SQLite, so stores do not branch on the dialect.

	conn, err := db.Open(ctx, db.TypeSQLite, "file:classvote.db")

# Schema

CreateSchema creates three tables:

  - election: rules, window and lifecycle status
  - roster_entry: per-election voters and candidates
  - vote: the append-only ledger

It uses CREATE TABLE IF NOT EXISTS, so it is safe to call on every startup.

# Transactions

Stores accept a Querier, which both *sql.DB and *sql.Tx satisfy. RunInTx
starts a transaction when given a *sql.DB and joins the existing one when
given a *sql.Tx:

	err := db.RunInTx(ctx, conn, func(tx db.Querier) error {
		reg := registry.New(tx)
		...
	})

# Constraint Errors

IsUniqueViolation recognizes unique constraint failures from all three
drivers (*pq.Error, *pgconn.PgError and *sqlite.Error).
*/
package db
