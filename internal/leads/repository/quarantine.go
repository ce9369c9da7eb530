package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelcrm_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

const pulledColumns = `
	id, original_lead_id, name, email, phone, company, city, state, notes,
	original_category, original_status, pulled_by, pulled_from, pull_reason,
	filter_criteria, exported, exported_at, created_at, updated_at`

func scanPulledLead(row pgx.Row) (PulledLead, error) {
	var (
		p        PulledLead
		criteria []byte
	)
	err := row.Scan(
		&p.ID, &p.OriginalLeadID, &p.Name, &p.Email, &p.Phone, &p.Company,
		&p.City, &p.State, &p.Notes, &p.OriginalCategory, &p.OriginalStatus,
		&p.PulledByID, &p.PulledFromID, &p.PullReason, &criteria,
		&p.Exported, &p.ExportedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return PulledLead{}, err
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &p.FilterCriteria); err != nil {
			return PulledLead{}, fmt.Errorf("decoding filter criteria: %w", err)
		}
	}
	return p, nil
}

// CreatePulledLead inserts a quarantine snapshot. The partial unique index
// on (phone, pulled_from) WHERE NOT exported backs the at-most-one
// un-exported row invariant; a violation surfaces as ErrDuplicatePhone.
func (r *Repository) CreatePulledLead(ctx context.Context, params CreatePulledLeadParams) (PulledLead, error) {
	criteria, err := json.Marshal(params.FilterCriteria)
	if err != nil {
		return PulledLead{}, fmt.Errorf("encoding filter criteria: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO pulled_leads (
			original_lead_id, name, email, phone, company, city, state, notes,
			original_category, original_status, pulled_by, pulled_from,
			pull_reason, filter_criteria
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING`+pulledColumns,
		params.OriginalLeadID, params.Name, params.Email, params.Phone,
		params.Company, params.City, params.State, params.Notes,
		params.OriginalCategory, params.OriginalStatus, params.PulledByID,
		params.PulledFromID, params.PullReason, criteria,
	)

	pulled, err := scanPulledLead(row)
	if err != nil {
		if isUniqueViolation(err) {
			return PulledLead{}, ErrDuplicatePhone
		}
		return PulledLead{}, err
	}
	return pulled, nil
}

// GetPulledLead fetches one quarantine row by id.
func (r *Repository) GetPulledLead(ctx context.Context, id int64) (PulledLead, error) {
	row := r.db.QueryRow(ctx, `SELECT`+pulledColumns+` FROM pulled_leads WHERE id = $1`, id)
	pulled, err := scanPulledLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PulledLead{}, ErrPulledNotFound
	}
	return pulled, err
}

// UnexportedPullExists reports whether an un-exported quarantine row already
// holds this (phone, source agent) pair.
func (r *Repository) UnexportedPullExists(ctx context.Context, phone string, pulledFromID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pulled_leads
			WHERE phone = $1 AND pulled_from = $2 AND NOT exported
		)`, phone, pulledFromID,
	).Scan(&exists)
	return exists, err
}

func quarantineConds(filter QuarantineFilter, args *[]any) []string {
	arg := func(v any) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}

	var conds []string
	if len(filter.IDs) > 0 {
		conds = append(conds, "id = ANY("+arg(filter.IDs)+")")
	}
	if filter.FromDate != nil {
		conds = append(conds, "created_at >= "+arg(*filter.FromDate))
	}
	if filter.ToDate != nil {
		conds = append(conds, "created_at <= "+arg(*filter.ToDate))
	}
	if filter.OriginalStatus != nil {
		conds = append(conds, "original_status = "+arg(*filter.OriginalStatus))
	}
	if filter.OriginalCategory != nil {
		conds = append(conds, "original_category = "+arg(*filter.OriginalCategory))
	}
	if filter.Exported != nil {
		conds = append(conds, "exported = "+arg(*filter.Exported))
	}
	if filter.PulledByID != nil {
		conds = append(conds, "pulled_by = "+arg(*filter.PulledByID))
	}
	return conds
}

// SelectPulledLeads returns quarantine rows matching the filter, newest
// first, truncated to the filter's limit.
func (r *Repository) SelectPulledLeads(ctx context.Context, filter QuarantineFilter) ([]PulledLead, error) {
	var args []any
	conds := quarantineConds(filter, &args)

	query := `SELECT` + pulledColumns + ` FROM pulled_leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryPulledLeads(ctx, query, args)
}

// ListPulledLeads pages quarantine rows restricted to the caller's
// visibility scope.
func (r *Repository) ListPulledLeads(ctx context.Context, scope domain.QuarantineScope, userID int64, filter QuarantineFilter, page ListParams) ([]PulledLead, int, error) {
	if scope == domain.ScopeNone {
		return []PulledLead{}, 0, nil
	}

	var args []any
	conds := quarantineConds(filter, &args)
	if scope == domain.ScopeOwn {
		args = append(args, userID)
		conds = append(conds, fmt.Sprintf("pulled_by = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM pulled_leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page.PageSize <= 0 {
		page.PageSize = 20
	}
	if page.Page <= 0 {
		page.Page = 1
	}
	args = append(args, page.PageSize, (page.Page-1)*page.PageSize)
	query := `SELECT` + pulledColumns + ` FROM pulled_leads` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	pulled, err := r.queryPulledLeads(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return pulled, total, nil
}

func (r *Repository) queryPulledLeads(ctx context.Context, query string, args []any) ([]PulledLead, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pulled := make([]PulledLead, 0)
	for rows.Next() {
		p, err := scanPulledLead(rows)
		if err != nil {
			return nil, err
		}
		pulled = append(pulled, p)
	}
	return pulled, rows.Err()
}

// MarkExported flags the rows as exported, refreshing exported_at even on
// rows already exported (re-export is allowed and expected).
func (r *Repository) MarkExported(ctx context.Context, ids []int64, at time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE pulled_leads
		SET exported = true, exported_at = $2, updated_at = now()
		WHERE id = ANY($1)`, ids, at)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeletePulledLead removes a quarantine row. This is the move half of the
// transfer operation.
func (r *Repository) DeletePulledLead(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pulled_leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPulledNotFound
	}
	return nil
}

// PullStatistics aggregates the quarantine store within the caller's scope.
func (r *Repository) PullStatistics(ctx context.Context, scope domain.QuarantineScope, userID int64) (PullStatistics, error) {
	var stats PullStatistics
	if scope == domain.ScopeNone {
		return stats, nil
	}

	where := ""
	args := []any{}
	if scope == domain.ScopeOwn {
		where = " WHERE pulled_by = $1"
		args = append(args, userID)
	}

	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE exported),
			count(*) FILTER (WHERE NOT exported),
			count(*) FILTER (WHERE original_category = 'FRANCHISE'),
			count(*) FILTER (WHERE original_category = 'PACKAGE')
		FROM pulled_leads`+where, args...,
	).Scan(&stats.Total, &stats.Exported, &stats.NotExported, &stats.Franchise, &stats.Package)
	if err != nil {
		return PullStatistics{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT original_status, count(*) FROM pulled_leads`+where+`
		GROUP BY original_status ORDER BY count(*) DESC`, args...)
	if err != nil {
		return PullStatistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return PullStatistics{}, err
		}
		stats.ByStatus = append(stats.ByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return PullStatistics{}, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT original_category, count(*) FROM pulled_leads`+where+`
		GROUP BY original_category ORDER BY count(*) DESC`, args...)
	if err != nil {
		return PullStatistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return PullStatistics{}, err
		}
		stats.ByCategory = append(stats.ByCategory, cc)
	}
	if err := rows.Err(); err != nil {
		return PullStatistics{}, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT p.pulled_from, u.first_name || ' ' || u.last_name, count(*)
		FROM pulled_leads p
		JOIN users u ON u.id = p.pulled_from`+strings.ReplaceAll(where, "pulled_by", "p.pulled_by")+`
		GROUP BY p.pulled_from, u.first_name, u.last_name
		ORDER BY count(*) DESC
		LIMIT 10`, args...)
	if err != nil {
		return PullStatistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc CallerCount
		if err := rows.Scan(&cc.CallerID, &cc.CallerName, &cc.Count); err != nil {
			return PullStatistics{}, err
		}
		stats.ByCaller = append(stats.ByCaller, cc)
	}
	return stats, rows.Err()
}
