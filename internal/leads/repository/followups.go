package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const followUpColumns = `
	id, lead_id, assigned_to, scheduled_date, notes, completed, completed_at,
	created_at, updated_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	err := row.Scan(
		&f.ID, &f.LeadID, &f.AssignedToID, &f.ScheduledDate, &f.Notes,
		&f.Completed, &f.CompletedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

// CreateFollowUp schedules a reminder for a lead.
func (r *Repository) CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO followups (lead_id, assigned_to, scheduled_date, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING`+followUpColumns,
		params.LeadID, params.AssignedToID, params.ScheduledDate, params.Notes,
	)
	return scanFollowUp(row)
}

// ListPendingFollowUps returns open follow-ups, soonest first, optionally
// restricted to one assignee.
func (r *Repository) ListPendingFollowUps(ctx context.Context, assignedToID *int64) ([]FollowUp, error) {
	query := `SELECT` + followUpColumns + ` FROM followups WHERE NOT completed`
	args := []any{}
	if assignedToID != nil {
		query += " AND assigned_to = $1"
		args = append(args, *assignedToID)
	}
	query += " ORDER BY scheduled_date ASC, id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	followUps := make([]FollowUp, 0)
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		followUps = append(followUps, f)
	}
	return followUps, rows.Err()
}

// CompleteFollowUp marks a follow-up done.
func (r *Repository) CompleteFollowUp(ctx context.Context, id int64, at time.Time) (FollowUp, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE followups
		SET completed = true, completed_at = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+followUpColumns,
		id, at,
	)

	f, err := scanFollowUp(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrNotFound
	}
	return f, err
}
