package repository

import "context"

// AddActivity appends one entry to a lead's timeline.
func (r *Repository) AddActivity(ctx context.Context, params AddActivityParams) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_activities (
			lead_id, user_id, activity_type, description, old_status, new_status
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		params.LeadID, params.UserID, params.Type, params.Description,
		params.OldStatus, params.NewStatus,
	)
	return err
}

// ListActivities returns a lead's timeline, newest first.
func (r *Repository) ListActivities(ctx context.Context, leadID int64) ([]Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, user_id, activity_type, description, old_status,
			new_status, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.UserID, &a.Type, &a.Description,
			&a.OldStatus, &a.NewStatus, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
