// Package repository implements PostgreSQL persistence for the caller
// directory. The users table is owned by the surrounding system; this module
// reads it and flips presence flags.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a caller id does not resolve.
var ErrNotFound = errors.New("caller not found")

// Caller is one user in the caller directory.
type Caller struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Role      string
	IsActive  bool
	IsPresent bool
}

// Repository is the pgx-backed caller directory.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository bound to the connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const callerColumns = `id, first_name, last_name, email, role, is_active, is_present`

func scanCaller(row pgx.Row) (Caller, error) {
	var c Caller
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Role,
		&c.IsActive, &c.IsPresent)
	return c, err
}

// ListCallers returns active callers with the role, ordered by id ascending.
// Round-robin fairness depends on this ordering being stable. When
// onlyPresent is set, callers marked absent are excluded.
func (r *Repository) ListCallers(ctx context.Context, role string, onlyPresent bool) ([]Caller, error) {
	query := `SELECT ` + callerColumns + ` FROM users WHERE role = $1 AND is_active`
	if onlyPresent {
		query += ` AND is_present`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	callers := make([]Caller, 0)
	for rows.Next() {
		c, err := scanCaller(rows)
		if err != nil {
			return nil, err
		}
		callers = append(callers, c)
	}
	return callers, rows.Err()
}

// ListByRoles returns active users holding any of the roles, ordered by id.
func (r *Repository) ListByRoles(ctx context.Context, roles []string) ([]Caller, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callerColumns+` FROM users
		WHERE role = ANY($1) AND is_active
		ORDER BY id ASC`, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	callers := make([]Caller, 0)
	for rows.Next() {
		c, err := scanCaller(rows)
		if err != nil {
			return nil, err
		}
		callers = append(callers, c)
	}
	return callers, rows.Err()
}

// GetByID fetches one user.
func (r *Repository) GetByID(ctx context.Context, id int64) (Caller, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+callerColumns+` FROM users WHERE id = $1`, id)
	caller, err := scanCaller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Caller{}, ErrNotFound
	}
	return caller, err
}

// SetPresence flips one caller's presence flag.
func (r *Repository) SetPresence(ctx context.Context, id int64, present bool) (Caller, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET is_present = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+callerColumns,
		id, present)
	caller, err := scanCaller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Caller{}, ErrNotFound
	}
	return caller, err
}

// BulkSetPresence flips presence for a set of callers, returning how many
// rows changed.
func (r *Repository) BulkSetPresence(ctx context.Context, ids []int64, present bool) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_present = $2, updated_at = now()
		WHERE id = ANY($1)`, ids, present)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
