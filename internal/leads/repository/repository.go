// Package repository implements PostgreSQL persistence for the lead
// lifecycle: active leads, the quarantine store, the activity timeline and
// the transfer audit log.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lead row does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrPulledNotFound is returned when a quarantine row does not exist.
	ErrPulledNotFound = errors.New("pulled lead not found")
	// ErrDuplicatePhone is returned when an insert trips the unique
	// constraint on the active leads phone column. The constraint is the
	// authoritative duplicate signal under concurrent writes.
	ErrDuplicatePhone = errors.New("a lead with this phone already exists")
)

const uniqueViolation = "23505"

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, letting
// every query method run either directly on the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the pgx-backed LeadsRepository.
type Repository struct {
	pool *pgxpool.Pool
	db   querier
}

// New creates a repository bound to the connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// InTx runs fn inside one transaction. The Store passed to fn is bound to
// that transaction; any returned error rolls everything back. Calls nested
// inside an open transaction reuse it.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
