package service

import (
	"context"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
	"travelcrm_backend/platform/excel"
	"travelcrm_backend/platform/phone"
)

// QuarantineList is one page of quarantine rows with the total match count.
type QuarantineList struct {
	Items []repository.PulledLead
	Total int
}

// UploadRow is one exported quarantine row in upload format.
type UploadRow struct {
	Name    string
	Email   string
	Phone   string
	Company string
	City    string
	State   string
	Notes   string
}

// ListQuarantine pages the quarantine store within the role's visibility
// scope: super admins see everything, supervisors their own pulls, everyone
// else nothing.
func (s *Service) ListQuarantine(ctx context.Context, role string, userID int64, filter repository.QuarantineFilter, page repository.ListParams) (*QuarantineList, error) {
	scope := domain.QuarantineVisibility(role)
	items, total, err := s.repo.ListPulledLeads(ctx, scope, userID, filter, page)
	if err != nil {
		return nil, err
	}
	return &QuarantineList{Items: items, Total: total}, nil
}

// GetPulledLead fetches one quarantine row, honoring the visibility scope.
func (s *Service) GetPulledLead(ctx context.Context, role string, userID, id int64) (repository.PulledLead, error) {
	scope := domain.QuarantineVisibility(role)
	if scope == domain.ScopeNone {
		return repository.PulledLead{}, apperr.Forbidden("not allowed to view pulled leads")
	}

	pulled, err := s.repo.GetPulledLead(ctx, id)
	if err != nil {
		if err == repository.ErrPulledNotFound {
			return repository.PulledLead{}, apperr.NotFound("pulled lead not found")
		}
		return repository.PulledLead{}, err
	}
	if scope == domain.ScopeOwn && pulled.PulledByID != userID {
		return repository.PulledLead{}, apperr.NotFound("pulled lead not found")
	}
	return pulled, nil
}

// ExportResult carries the generated workbook.
type ExportResult struct {
	Data  []byte
	Count int
}

// ExportQuarantine selects quarantine rows by explicit ids and/or filter,
// writes them to a workbook and marks every selected row exported. Matching
// nothing is an error; re-exporting already exported rows just refreshes
// their export timestamp.
func (s *Service) ExportQuarantine(ctx context.Context, ids []int64, filter repository.QuarantineFilter) (*ExportResult, error) {
	filter.IDs = ids

	var result ExportResult
	err := s.repo.InTx(ctx, func(store repository.Store) error {
		pulled, err := store.SelectPulledLeads(ctx, filter)
		if err != nil {
			return err
		}
		if len(pulled) == 0 {
			return apperr.NoData("No lead found to export")
		}

		rows := make([]excel.ExportRow, len(pulled))
		exportIDs := make([]int64, len(pulled))
		for i, p := range pulled {
			rows[i] = excel.ExportRow{
				Name:    p.Name,
				Email:   deref(p.Email),
				Phone:   phone.E164(p.Phone),
				Company: deref(p.Company),
				City:    deref(p.City),
				State:   deref(p.State),
			}
			exportIDs[i] = p.ID
		}

		data, err := excel.WritePulledLeads(rows)
		if err != nil {
			return err
		}

		if _, err := store.MarkExported(ctx, exportIDs, s.now()); err != nil {
			return err
		}

		result = ExportResult{Data: data, Count: len(pulled)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PrepareUpload returns exported quarantine rows in upload format. Rows not
// yet exported are excluded.
func (s *Service) PrepareUpload(ctx context.Context, ids []int64) ([]UploadRow, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("pulled lead ids are required")
	}

	exported := true
	pulled, err := s.repo.SelectPulledLeads(ctx, repository.QuarantineFilter{
		IDs:      ids,
		Exported: &exported,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]UploadRow, len(pulled))
	for i, p := range pulled {
		rows[i] = UploadRow{
			Name:    p.Name,
			Email:   deref(p.Email),
			Phone:   p.Phone,
			Company: deref(p.Company),
			City:    deref(p.City),
			State:   deref(p.State),
			Notes:   deref(p.Notes),
		}
	}
	return rows, nil
}

// QuarantineStatistics aggregates the quarantine store within the role's
// visibility scope.
func (s *Service) QuarantineStatistics(ctx context.Context, role string, userID int64) (repository.PullStatistics, error) {
	scope := domain.QuarantineVisibility(role)
	return s.repo.PullStatistics(ctx, scope, userID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
