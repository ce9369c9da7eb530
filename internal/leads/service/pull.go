package service

import (
	"context"
	"fmt"

	"travelcrm_backend/internal/events"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
)

const (
	maxPullIDs       = 500
	defaultPullLimit = 300
	maxPullLimit     = 1000
)

// PullResult reports a pull batch: the quarantine rows created, the items
// that failed with their reasons, and summaries of the deleted source rows.
type PullResult struct {
	Pulled  []repository.PulledLead
	Failed  []PullFailure
	Deleted []DeletedLead
}

// PullFailure is one lead that could not be pulled.
type PullFailure struct {
	LeadID int64
	Reason string
}

// DeletedLead summarizes an active row removed by a pull.
type DeletedLead struct {
	ID    int64
	Name  string
	Phone string
}

// PullCandidate is one row a filter pull would affect, annotated with
// whether the pull can go through.
type PullCandidate struct {
	Lead          repository.Lead
	AlreadyPulled bool
	CanBePulled   bool
}

// PullByIDs moves the identified leads into quarantine. Each lead is
// snapshotted first and deleted second; per-item failures (missing,
// unassigned, duplicate un-exported pull) are reported without failing the
// batch. The whole batch commits in one transaction.
func (s *Service) PullByIDs(ctx context.Context, leadIDs []int64, pulledByID int64, reason string) (*PullResult, error) {
	if len(leadIDs) == 0 || len(leadIDs) > maxPullIDs {
		return nil, apperr.Validation(fmt.Sprintf("lead id list must hold between 1 and %d ids", maxPullIDs))
	}

	pullerName := s.agentName(ctx, pulledByID)

	result := &PullResult{}
	err := s.repo.InTx(ctx, func(store repository.Store) error {
		for _, leadID := range leadIDs {
			lead, err := store.GetLead(ctx, leadID)
			if err != nil {
				if err == repository.ErrNotFound {
					result.Failed = append(result.Failed, PullFailure{
						LeadID: leadID, Reason: "Lead not found",
					})
					continue
				}
				return err
			}

			if lead.AssignedToID == nil {
				result.Failed = append(result.Failed, PullFailure{
					LeadID: leadID, Reason: "Lead is not assigned",
				})
				continue
			}

			duplicate, err := store.UnexportedPullExists(ctx, lead.Phone, *lead.AssignedToID)
			if err != nil {
				return err
			}
			if duplicate {
				result.Failed = append(result.Failed, PullFailure{
					LeadID: leadID, Reason: "Lead already pulled and not exported",
				})
				continue
			}

			notes := appendPullLog(lead.Notes, fmt.Sprintf(
				"Lead MOVED (not copied) from Lead table.\nOriginal Lead ID: %d\nPulled by: %s\nReason: %s\nDate: %s",
				lead.ID, pullerName, reason, s.now().Format(timestampLayout)))

			pulled, err := store.CreatePulledLead(ctx, repository.CreatePulledLeadParams{
				OriginalLeadID:   lead.ID,
				Name:             lead.Name,
				Email:            lead.Email,
				Phone:            lead.Phone,
				Company:          lead.Company,
				City:             lead.City,
				State:            lead.State,
				Notes:            &notes,
				OriginalCategory: lead.Category,
				OriginalStatus:   lead.Status,
				PulledByID:       pulledByID,
				PulledFromID:     *lead.AssignedToID,
				PullReason:       reason,
				FilterCriteria: repository.FilterCriteria{
					Method:            "by_ids",
					LeadIDs:           []int64{leadID},
					OriginalLeadID:    lead.ID,
					DeletedFromSource: true,
				},
			})
			if err != nil {
				if err == repository.ErrDuplicatePhone {
					return apperr.Conflict(fmt.Sprintf("Lead %d already pulled and not exported", leadID))
				}
				return err
			}

			if err := store.DeleteLead(ctx, lead.ID); err != nil {
				return err
			}

			result.Pulled = append(result.Pulled, pulled)
			result.Deleted = append(result.Deleted, DeletedLead{
				ID: lead.ID, Name: lead.Name, Phone: lead.Phone,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("pull_by_ids", len(result.Pulled), len(result.Failed), pulledByID)
	s.publishPulled(ctx, result, pulledByID, "by_ids")
	return result, nil
}

// PullByFilter selects active leads with the filter (newest first, bounded)
// and moves them into quarantine, silently skipping rows that already have
// an un-exported quarantine duplicate.
func (s *Service) PullByFilter(ctx context.Context, filter repository.PullFilter, pulledByID int64, reason string) (*PullResult, error) {
	if !filter.HasCriteria() {
		return nil, apperr.Policy("at least one filter criterion is required")
	}
	filter.Limit = clampLimit(filter.Limit, defaultPullLimit, maxPullLimit)

	result := &PullResult{}
	err := s.repo.InTx(ctx, func(store repository.Store) error {
		leads, err := store.SelectLeadsForPull(ctx, filter)
		if err != nil {
			return err
		}

		for _, lead := range leads {
			if lead.AssignedToID == nil {
				result.Failed = append(result.Failed, PullFailure{
					LeadID: lead.ID, Reason: "Lead is not assigned",
				})
				continue
			}

			duplicate, err := store.UnexportedPullExists(ctx, lead.Phone, *lead.AssignedToID)
			if err != nil {
				return err
			}
			if duplicate {
				continue
			}

			notes := appendPullLog(lead.Notes, fmt.Sprintf(
				"Lead MOVED from Lead table.\nOriginal Lead ID: %d\nPulled using filters\nDate: %s",
				lead.ID, s.now().Format(timestampLayout)))

			filterCopy := filter
			pulled, err := store.CreatePulledLead(ctx, repository.CreatePulledLeadParams{
				OriginalLeadID:   lead.ID,
				Name:             lead.Name,
				Email:            lead.Email,
				Phone:            lead.Phone,
				Company:          lead.Company,
				City:             lead.City,
				State:            lead.State,
				Notes:            &notes,
				OriginalCategory: lead.Category,
				OriginalStatus:   lead.Status,
				PulledByID:       pulledByID,
				PulledFromID:     *lead.AssignedToID,
				PullReason:       reason,
				FilterCriteria: repository.FilterCriteria{
					Method:            "by_filters",
					Filter:            &filterCopy,
					OriginalLeadID:    lead.ID,
					DeletedFromSource: true,
				},
			})
			if err != nil {
				if err == repository.ErrDuplicatePhone {
					return apperr.Conflict(fmt.Sprintf("Lead %d already pulled and not exported", lead.ID))
				}
				return err
			}

			if err := store.DeleteLead(ctx, lead.ID); err != nil {
				return err
			}

			result.Pulled = append(result.Pulled, pulled)
			result.Deleted = append(result.Deleted, DeletedLead{
				ID: lead.ID, Name: lead.Name, Phone: lead.Phone,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.BatchOutcome("pull_by_filters", len(result.Pulled), len(result.Failed), pulledByID)
	s.publishPulled(ctx, result, pulledByID, "by_filters")
	return result, nil
}

// PreviewPull runs the filter without mutating anything, annotating each
// candidate with whether a pull would take it.
func (s *Service) PreviewPull(ctx context.Context, filter repository.PullFilter) ([]PullCandidate, error) {
	if !filter.HasCriteria() {
		return nil, apperr.Policy("at least one filter criterion is required")
	}
	filter.Limit = clampLimit(filter.Limit, defaultPullLimit, maxPullLimit)

	leads, err := s.repo.SelectLeadsForPull(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]PullCandidate, 0, len(leads))
	for _, lead := range leads {
		alreadyPulled := false
		if lead.AssignedToID != nil {
			alreadyPulled, err = s.repo.UnexportedPullExists(ctx, lead.Phone, *lead.AssignedToID)
			if err != nil {
				return nil, err
			}
		}
		candidates = append(candidates, PullCandidate{
			Lead:          lead,
			AlreadyPulled: alreadyPulled,
			CanBePulled:   !alreadyPulled && lead.AssignedToID != nil,
		})
	}
	return candidates, nil
}

// CallerSummary aggregates active leads per caller for the pull screen.
func (s *Service) CallerSummary(ctx context.Context) ([]repository.CallerLeadSummary, error) {
	return s.repo.CallerLeadSummaries(ctx)
}

func (s *Service) publishPulled(ctx context.Context, result *PullResult, pulledByID int64, method string) {
	ids := make([]int64, len(result.Pulled))
	for i, p := range result.Pulled {
		ids[i] = p.ID
	}
	s.bus.Publish(ctx, events.LeadsPulled{
		BaseEvent: events.NewBaseEvent(),
		PulledBy:  pulledByID,
		Method:    method,
		PulledID:  ids,
		Failed:    len(result.Failed),
	})
}

// appendPullLog appends the pull provenance block to a lead's notes.
func appendPullLog(notes *string, entry string) string {
	base := ""
	if notes != nil {
		base = *notes
	}
	return fmt.Sprintf("%s\n\n--- PULL LOG ---\n%s", base, entry)
}

// clampLimit applies the default and ceiling to a caller-supplied limit.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
