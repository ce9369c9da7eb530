package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travelcrm_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

const leadColumns = `
	id, name, email, phone, company, city, state, category, status,
	assigned_to, uploaded_by, converted_by, converted_at, original_category,
	notes, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.City, &l.State,
		&l.Category, &l.Status, &l.AssignedToID, &l.UploadedByID,
		&l.ConvertedByID, &l.ConvertedAt, &l.OriginalCategory, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// CreateLead inserts an active lead. A phone collision surfaces as
// ErrDuplicatePhone.
func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO leads (
			name, email, phone, company, city, state, category, status,
			assigned_to, uploaded_by, original_category, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING`+leadColumns,
		params.Name, params.Email, params.Phone, params.Company, params.City,
		params.State, params.Category, params.Status, params.AssignedToID,
		params.UploadedByID, params.OriginalCategory, params.Notes,
	)

	lead, err := scanLead(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, err
	}
	return lead, nil
}

// GetLead fetches one active lead by id.
func (r *Repository) GetLead(ctx context.Context, id int64) (Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT`+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// LeadPhoneExists reports whether an active lead holds the phone number.
func (r *Repository) LeadPhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE phone = $1)`, phone,
	).Scan(&exists)
	return exists, err
}

// SelectLeadsForPull returns active leads matching the filter, newest first,
// truncated to the filter's limit.
func (r *Repository) SelectLeadsForPull(ctx context.Context, filter PullFilter) ([]Lead, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CallerID != nil {
		conds = append(conds, "assigned_to = "+arg(*filter.CallerID))
	} else if len(filter.CallerIDs) > 0 {
		conds = append(conds, "assigned_to = ANY("+arg(filter.CallerIDs)+")")
	}
	if filter.FromDate != nil {
		conds = append(conds, "created_at >= "+arg(*filter.FromDate))
	}
	if filter.ToDate != nil {
		conds = append(conds, "created_at <= "+arg(*filter.ToDate))
	}
	if filter.Category != nil {
		conds = append(conds, "category = "+arg(*filter.Category))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	} else if len(filter.Statuses) > 0 {
		conds = append(conds, "status = ANY("+arg(filter.Statuses)+")")
	}

	query := `SELECT` + leadColumns + ` FROM leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ConvertLead applies the conversion fields in one update.
func (r *Repository) ConvertLead(ctx context.Context, params ConvertLeadParams) (Lead, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE leads SET
			category = $2,
			original_category = $3,
			assigned_to = $4,
			converted_by = $5,
			converted_at = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING`+leadColumns,
		params.LeadID, params.NewCategory, params.OriginalCategory,
		params.AssignedToID, params.ConvertedByID, params.ConvertedAt,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateLeadStatus sets the lifecycle status of one lead.
func (r *Repository) UpdateLeadStatus(ctx context.Context, id int64, status domain.Status) (Lead, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+leadColumns,
		id, status,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// DeleteLead removes an active lead row. This is the move half of the
// pull operation, not a soft delete.
func (r *Repository) DeleteLead(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CallerLeadSummaries aggregates the active table per assigned caller.
func (r *Repository) CallerLeadSummaries(ctx context.Context) ([]CallerLeadSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			u.id,
			u.first_name || ' ' || u.last_name,
			u.role,
			count(l.id),
			count(l.id) FILTER (WHERE l.status = 'NEW'),
			count(l.id) FILTER (WHERE l.status = 'CONTACTED'),
			count(l.id) FILTER (WHERE l.status = 'INTERESTED'),
			count(l.id) FILTER (WHERE l.status = 'FOLLOW_UP')
		FROM users u
		LEFT JOIN leads l ON l.assigned_to = u.id
		WHERE u.role IN ('FRANCHISE_CALLER', 'PACKAGE_CALLER') AND u.is_active
		GROUP BY u.id, u.first_name, u.last_name, u.role
		ORDER BY u.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]CallerLeadSummary, 0)
	for rows.Next() {
		var s CallerLeadSummary
		if err := rows.Scan(&s.CallerID, &s.CallerName, &s.Role, &s.Total,
			&s.New, &s.Contacted, &s.Interested, &s.FollowUp); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
