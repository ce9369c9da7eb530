package service

import (
	"context"
	"fmt"
	"strings"

	"travelcrm_backend/internal/events"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
	"travelcrm_backend/platform/excel"
	"travelcrm_backend/platform/phone"
)

// DistributeResult reports a distribution batch: the created leads and the
// rows skipped with their reasons.
type DistributeResult struct {
	Created []repository.Lead
	Skipped []SkippedRow
	Total   int
}

// SkippedRow is one input row that did not become a lead. Row is the
// spreadsheet row number (header is row 1).
type SkippedRow struct {
	Row    int
	Name   string
	Phone  string
	Reason string
}

// UploadResult reports a manual upload batch assigned to a fixed caller.
type UploadResult struct {
	Created []repository.Lead
	Failed  []SkippedRow
	Total   int
}

// Distribute validates and deduplicates the incoming rows and assigns them
// round-robin across the present callers of the category. The whole batch
// commits in one transaction; invalid rows are skipped, never failing the
// batch.
func (s *Service) Distribute(ctx context.Context, rows []excel.LeadRow, category domain.Category, uploaderID int64) (*DistributeResult, error) {
	if !category.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown lead category: %s", category))
	}

	callers, err := s.agents.EligibleAgents(ctx, category, false)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "loading callers", err)
	}
	if len(callers) == 0 {
		return nil, s.noCallersError(ctx, category)
	}

	result := &DistributeResult{Total: len(rows)}
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		callerIndex := 0
		for i, row := range rows {
			rowNum := i + 2
			if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Phone) == "" {
				result.Skipped = append(result.Skipped, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: "Missing name or phone",
				})
				continue
			}

			mobile, err := phone.NormalizeMobile(row.Phone)
			if err != nil {
				result.Skipped = append(result.Skipped, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: fmt.Sprintf("Invalid phone number: %s", row.Phone),
				})
				continue
			}

			exists, err := store.LeadPhoneExists(ctx, mobile)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped = append(result.Skipped, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: fmt.Sprintf("Duplicate phone number: %s", mobile),
				})
				continue
			}

			caller := callers[callerIndex%len(callers)]
			lead, err := s.createLead(ctx, store, row, mobile, category, caller.ID, uploaderID)
			if err != nil {
				return err
			}

			if err := store.AddActivity(ctx, repository.AddActivityParams{
				LeadID: lead.ID,
				UserID: &uploaderID,
				Type:   domain.ActivityNote,
				Description: fmt.Sprintf("Lead auto-distributed and assigned to %s",
					caller.FullName()),
			}); err != nil {
				return err
			}

			result.Created = append(result.Created, lead)
			callerIndex++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("distribute", len(result.Created), len(result.Skipped), uploaderID)
	s.bus.Publish(ctx, events.LeadsDistributed{
		BaseEvent:  events.NewBaseEvent(),
		Category:   string(category),
		UploaderID: uploaderID,
		LeadIDs:    leadIDs(result.Created),
		Skipped:    len(result.Skipped),
	})

	return result, nil
}

// UploadAssigned runs the same validation pipeline as Distribute but assigns
// every created lead to one fixed caller, reporting per-row failures.
func (s *Service) UploadAssigned(ctx context.Context, rows []excel.LeadRow, category domain.Category, assignedToID, uploaderID int64) (*UploadResult, error) {
	if !category.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown lead category: %s", category))
	}

	assignee, err := s.agents.GetAgent(ctx, assignedToID)
	if err != nil {
		if err == ports.ErrAgentNotFound {
			return nil, apperr.NotFound("assignee not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
	}

	if len(rows) == 0 {
		return nil, apperr.Policy("No valid leads found in the file")
	}

	result := &UploadResult{Total: len(rows)}
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		for i, row := range rows {
			rowNum := i + 2
			if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Phone) == "" {
				result.Failed = append(result.Failed, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: "Missing name or phone",
				})
				continue
			}

			mobile, err := phone.NormalizeMobile(row.Phone)
			if err != nil {
				result.Failed = append(result.Failed, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: fmt.Sprintf("Invalid phone number: %s", row.Phone),
				})
				continue
			}

			exists, err := store.LeadPhoneExists(ctx, mobile)
			if err != nil {
				return err
			}
			if exists {
				result.Failed = append(result.Failed, SkippedRow{
					Row: rowNum, Name: row.Name, Phone: row.Phone,
					Reason: fmt.Sprintf("Duplicate phone number: %s", mobile),
				})
				continue
			}

			lead, err := s.createLead(ctx, store, row, mobile, category, assignedToID, uploaderID)
			if err != nil {
				return err
			}

			if err := store.AddActivity(ctx, repository.AddActivityParams{
				LeadID: lead.ID,
				UserID: &uploaderID,
				Type:   domain.ActivityNote,
				Description: fmt.Sprintf("Lead manually uploaded and assigned to %s",
					assignee.FullName()),
			}); err != nil {
				return err
			}

			result.Created = append(result.Created, lead)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("upload_assigned", len(result.Created), len(result.Failed), uploaderID)
	return result, nil
}

// CreateManualParams holds one manually entered lead.
type CreateManualParams struct {
	Name         string
	Email        string
	Phone        string
	Company      string
	City         string
	State        string
	Notes        string
	Category     domain.Category
	AssignedToID int64
	CreatorID    int64
}

// CreateManual creates a single lead entered through the UI.
func (s *Service) CreateManual(ctx context.Context, params CreateManualParams) (repository.Lead, error) {
	if !params.Category.Valid() {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown lead category: %s", params.Category))
	}

	mobile, err := phone.NormalizeMobile(params.Phone)
	if err != nil {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("Invalid phone number: %s", params.Phone))
	}

	if _, err := s.agents.GetAgent(ctx, params.AssignedToID); err != nil {
		if err == ports.ErrAgentNotFound {
			return repository.Lead{}, apperr.NotFound("assignee not found")
		}
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
	}

	var lead repository.Lead
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		row := excel.LeadRow{
			Name: params.Name, Phone: params.Phone, Email: params.Email,
			Company: params.Company, City: params.City, State: params.State,
			Notes: params.Notes,
		}
		created, err := s.createLead(ctx, store, row, mobile, params.Category, params.AssignedToID, params.CreatorID)
		if err != nil {
			return err
		}
		lead = created

		return store.AddActivity(ctx, repository.AddActivityParams{
			LeadID:      lead.ID,
			UserID:      &params.CreatorID,
			Type:        domain.ActivityNote,
			Description: "Lead created manually",
		})
	})
	if err != nil {
		return repository.Lead{}, err
	}
	return lead, nil
}

// createLead inserts one active lead from a validated row. A phone constraint
// violation surfaces as a Conflict: the unique index is the authoritative
// duplicate signal under concurrent writers.
func (s *Service) createLead(ctx context.Context, store repository.Store, row excel.LeadRow, mobile string, category domain.Category, assignedToID, uploaderID int64) (repository.Lead, error) {
	lead, err := store.CreateLead(ctx, repository.CreateLeadParams{
		Name:         strings.TrimSpace(row.Name),
		Email:        strPtr(row.Email),
		Phone:        mobile,
		Company:      strPtr(row.Company),
		City:         strPtr(row.City),
		State:        strPtr(row.State),
		Notes:        strPtr(row.Notes),
		Category:     category,
		Status:       domain.StatusNew,
		AssignedToID: &assignedToID,
		UploadedByID: &uploaderID,
	})
	if err == repository.ErrDuplicatePhone {
		return repository.Lead{}, apperr.Conflict(fmt.Sprintf("A lead with phone %s already exists", mobile))
	}
	return lead, err
}

// noCallersError explains why the present pool is empty, naming the count of
// callers marked absent when the pool is only temporarily unavailable.
func (s *Service) noCallersError(ctx context.Context, category domain.Category) error {
	all, err := s.agents.EligibleAgents(ctx, category, true)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "loading callers", err)
	}
	if len(all) > 0 {
		absent := 0
		for _, a := range all {
			if !a.Present {
				absent++
			}
		}
		return apperr.Policy(fmt.Sprintf(
			"No active and present %s callers found. %d caller(s) are marked as not present.",
			category, absent))
	}
	return apperr.Policy(fmt.Sprintf("No active %s callers found", category))
}

// agentName resolves a display name, falling back to the raw id when the
// directory cannot answer.
func (s *Service) agentName(ctx context.Context, id int64) string {
	agent, err := s.agents.GetAgent(ctx, id)
	if err != nil {
		return fmt.Sprintf("user %d", id)
	}
	return agent.FullName()
}

func leadIDs(leads []repository.Lead) []int64 {
	ids := make([]int64, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	return ids
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
