package service

import (
	"context"
	"fmt"

	"travelcrm_backend/internal/events"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
)

const (
	maxTransferIDs          = 500
	defaultTransferLimit    = 100
	maxTransferLimit        = 1000
	defaultTransferPreview  = 50
	maxTransferPreviewLimit = 500
)

// TransferResult reports a transfer batch.
type TransferResult struct {
	Transferred []TransferredLead
	Failed      []TransferFailure
}

// TransferredLead links a new active lead to the quarantine row it came from.
type TransferredLead struct {
	NewLeadID    int64
	PulledLeadID int64
	Name         string
	Phone        string
}

// TransferFailure is one quarantine row that could not be transferred.
type TransferFailure struct {
	PulledLeadID int64
	Phone        string
	Reason       string
}

// TransferCandidate is one quarantine row a filter transfer would affect.
type TransferCandidate struct {
	PulledLead      repository.PulledLead
	CanTransfer     bool
	DuplicateReason string
}

// TransferByIDs moves the identified quarantine rows back into the active
// table under the target caller. Each new lead starts at status NEW in its
// original category with the transfer provenance appended to its notes; the
// quarantine row is deleted in the same transaction. Rows whose phone is
// already active fail individually without failing the batch.
func (s *Service) TransferByIDs(ctx context.Context, pulledLeadIDs []int64, assignedToID, transferredByID int64, notes string) (*TransferResult, error) {
	if len(pulledLeadIDs) == 0 || len(pulledLeadIDs) > maxTransferIDs {
		return nil, apperr.Validation(fmt.Sprintf("pulled lead id list must hold between 1 and %d ids", maxTransferIDs))
	}

	assignee, err := s.agents.GetAgent(ctx, assignedToID)
	if err != nil {
		if err == ports.ErrAgentNotFound {
			return nil, apperr.NotFound("assignee not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
	}
	transferrerName := s.agentName(ctx, transferredByID)

	result := &TransferResult{}
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		for _, pulledID := range pulledLeadIDs {
			pulled, err := store.GetPulledLead(ctx, pulledID)
			if err != nil {
				if err == repository.ErrPulledNotFound {
					result.Failed = append(result.Failed, TransferFailure{
						PulledLeadID: pulledID, Reason: "Pulled lead not found",
					})
					continue
				}
				return err
			}

			exists, err := store.LeadPhoneExists(ctx, pulled.Phone)
			if err != nil {
				return err
			}
			if exists {
				result.Failed = append(result.Failed, TransferFailure{
					PulledLeadID: pulledID, Phone: pulled.Phone,
					Reason: "Lead with this phone already exists in Lead table",
				})
				continue
			}

			provenance := fmt.Sprintf(
				"Original PulledLead ID: %d\nOriginal Status: %s\nTransferred by: %s\nDate: %s\nNotes: %s",
				pulled.ID, pulled.OriginalStatus, transferrerName,
				s.now().Format(timestampLayout), notes)

			lead, err := s.transferOne(ctx, store, pulled, assignee, transferredByID, provenance,
				fmt.Sprintf("Lead transferred from PulledLeads database. Originally pulled from: %s. Assigned to: %s.",
					s.agentName(ctx, pulled.PulledFromID), assignee.FullName()))
			if err != nil {
				return err
			}

			result.Transferred = append(result.Transferred, TransferredLead{
				NewLeadID: lead.ID, PulledLeadID: pulled.ID,
				Name: lead.Name, Phone: lead.Phone,
			})
		}

		return s.logTransfer(ctx, store, result, transferredByID, assignedToID, "by_ids", notes)
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("transfer_by_ids", len(result.Transferred), len(result.Failed), transferredByID)
	s.publishTransferred(ctx, result, transferredByID, assignedToID, "by_ids")
	return result, nil
}

// TransferByFilter selects quarantine rows with the filter (newest first,
// bounded) and moves them back into the active table.
func (s *Service) TransferByFilter(ctx context.Context, filter repository.QuarantineFilter, assignedToID, transferredByID int64, notes string) (*TransferResult, error) {
	if !filter.HasCriteria() {
		return nil, apperr.Policy("at least one filter criterion is required")
	}
	filter.Limit = clampLimit(filter.Limit, defaultTransferLimit, maxTransferLimit)

	assignee, err := s.agents.GetAgent(ctx, assignedToID)
	if err != nil {
		if err == ports.ErrAgentNotFound {
			return nil, apperr.NotFound("assignee not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
	}
	transferrerName := s.agentName(ctx, transferredByID)

	result := &TransferResult{}
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		pulled, err := store.SelectPulledLeads(ctx, filter)
		if err != nil {
			return err
		}
		if len(pulled) == 0 {
			return apperr.NoData("No leads found matching the criteria")
		}

		for _, p := range pulled {
			exists, err := store.LeadPhoneExists(ctx, p.Phone)
			if err != nil {
				return err
			}
			if exists {
				result.Failed = append(result.Failed, TransferFailure{
					PulledLeadID: p.ID, Phone: p.Phone,
					Reason: "Duplicate phone in Lead table",
				})
				continue
			}

			provenance := fmt.Sprintf(
				"Filter-based transfer\nTransferred by: %s\nDate: %s\nNotes: %s",
				transferrerName, s.now().Format(timestampLayout), notes)

			lead, err := s.transferOne(ctx, store, p, assignee, transferredByID, provenance,
				fmt.Sprintf("Lead transferred from PulledLeads using filters. Originally from: %s",
					s.agentName(ctx, p.PulledFromID)))
			if err != nil {
				return err
			}

			result.Transferred = append(result.Transferred, TransferredLead{
				NewLeadID: lead.ID, PulledLeadID: p.ID,
				Name: lead.Name, Phone: lead.Phone,
			})
		}

		return s.logTransfer(ctx, store, result, transferredByID, assignedToID, "by_filters", notes)
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("transfer_by_filters", len(result.Transferred), len(result.Failed), transferredByID)
	s.publishTransferred(ctx, result, transferredByID, assignedToID, "by_filters")
	return result, nil
}

// PreviewTransfer runs the filter without mutating anything, annotating each
// candidate with whether a transfer would take it.
func (s *Service) PreviewTransfer(ctx context.Context, filter repository.QuarantineFilter) ([]TransferCandidate, error) {
	if !filter.HasCriteria() {
		return nil, apperr.Policy("at least one filter criterion is required")
	}
	filter.Limit = clampLimit(filter.Limit, defaultTransferPreview, maxTransferPreviewLimit)

	pulled, err := s.repo.SelectPulledLeads(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]TransferCandidate, 0, len(pulled))
	for _, p := range pulled {
		exists, err := s.repo.LeadPhoneExists(ctx, p.Phone)
		if err != nil {
			return nil, err
		}
		candidate := TransferCandidate{PulledLead: p, CanTransfer: !exists}
		if exists {
			candidate.DuplicateReason = "Phone exists in Lead table"
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// transferOne creates the new active lead, records the TRANSFER activity and
// deletes the quarantine row.
func (s *Service) transferOne(ctx context.Context, store repository.Store, pulled repository.PulledLead, assignee ports.Agent, transferredByID int64, provenance, activityDescription string) (repository.Lead, error) {
	notes := fmt.Sprintf("%s\n\n--- TRANSFERRED FROM PULLED LEADS ---\n%s", deref(pulled.Notes), provenance)

	lead, err := store.CreateLead(ctx, repository.CreateLeadParams{
		Name:         pulled.Name,
		Email:        pulled.Email,
		Phone:        pulled.Phone,
		Company:      pulled.Company,
		City:         pulled.City,
		State:        pulled.State,
		Notes:        &notes,
		Category:     pulled.OriginalCategory,
		Status:       domain.StatusNew,
		AssignedToID: &assignee.ID,
		UploadedByID: &transferredByID,
	})
	if err != nil {
		if err == repository.ErrDuplicatePhone {
			return repository.Lead{}, apperr.Conflict(fmt.Sprintf("A lead with phone %s already exists", pulled.Phone))
		}
		return repository.Lead{}, err
	}

	if err := store.AddActivity(ctx, repository.AddActivityParams{
		LeadID:      lead.ID,
		UserID:      &transferredByID,
		Type:        domain.ActivityTransfer,
		Description: activityDescription,
	}); err != nil {
		return repository.Lead{}, err
	}

	if err := store.DeletePulledLead(ctx, pulled.ID); err != nil {
		return repository.Lead{}, err
	}
	return lead, nil
}

// logTransfer appends one audit record for the batch when anything moved.
func (s *Service) logTransfer(ctx context.Context, store repository.Store, result *TransferResult, transferredByID, assignedToID int64, method, notes string) error {
	if len(result.Transferred) == 0 {
		return nil
	}
	pulledIDs := make([]int64, len(result.Transferred))
	newIDs := make([]int64, len(result.Transferred))
	for i, t := range result.Transferred {
		pulledIDs[i] = t.PulledLeadID
		newIDs[i] = t.NewLeadID
	}
	return store.AddTransferLog(ctx, repository.AddTransferLogParams{
		TransferredBy: transferredByID,
		AssignedTo:    assignedToID,
		Method:        method,
		PulledLeadIDs: pulledIDs,
		NewLeadIDs:    newIDs,
		Notes:         notes,
	})
}

func (s *Service) publishTransferred(ctx context.Context, result *TransferResult, transferredByID, assignedToID int64, method string) {
	newIDs := make([]int64, len(result.Transferred))
	for i, t := range result.Transferred {
		newIDs[i] = t.NewLeadID
	}
	s.bus.Publish(ctx, events.LeadsTransferred{
		BaseEvent:     events.NewBaseEvent(),
		TransferredBy: transferredByID,
		AssignedTo:    assignedToID,
		Method:        method,
		NewLeadIDs:    newIDs,
		Failed:        len(result.Failed),
	})
}
