package repository

import "context"

// AddTransferLog appends one transfer audit record.
func (r *Repository) AddTransferLog(ctx context.Context, params AddTransferLogParams) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_transfer_logs (
			transferred_by, assigned_to, method, pulled_lead_ids, new_lead_ids, notes
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		params.TransferredBy, params.AssignedTo, params.Method,
		params.PulledLeadIDs, params.NewLeadIDs, params.Notes,
	)
	return err
}
