// Package store is the Knowledge Store (C1): hand-written SQL repositories
// over a pgx-backed *sql.DB. Each Cn service is constructed with a *Store
// and issues queries through its typed methods rather than holding raw SQL
// inline — the repository-per-entity layering the teacher used over its
// Ent client, carried forward without the code generator.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// dbExecutor is satisfied by both *sql.DB and *sql.Tx, so every repository
// method can run unmodified against either a plain connection or a
// transaction.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the shared handle every repository method hangs off of. It owns
// no connection lifecycle of its own — pkg/database.Client does that.
//
// exec is what repository methods actually query through. Outside a
// transaction it is db itself; WithTx swaps it for a *sql.Tx so a caller can
// construct a tx-scoped Store (and tx-scoped services on top of it) without
// touching any repository method.
type Store struct {
	db   *sql.DB
	exec dbExecutor
}

// New creates a Store over an already-open, migrated database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db, exec: db}
}

// DB exposes the underlying connection for callers that need raw access
// (health checks, test fixtures, migrations).
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn against a Store scoped to a single transaction, committing
// on success and rolling back if fn returns an error or panics. Used where a
// fan-out across several repository calls (e.g. C5's per-sentence review
// dispatch) must all-or-nothing.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, exec: tx}); err != nil {
		return err
	}
	return tx.Commit()
}
