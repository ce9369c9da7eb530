package service

import (
	"context"
	"time"

	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
)

// ScheduleFollowUp creates a follow-up reminder on a lead.
func (s *Service) ScheduleFollowUp(ctx context.Context, leadID, assignedToID int64, scheduledDate time.Time, notes string) (repository.FollowUp, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if err == repository.ErrNotFound {
			return repository.FollowUp{}, apperr.NotFound("lead not found")
		}
		return repository.FollowUp{}, err
	}
	if _, err := s.agents.GetAgent(ctx, assignedToID); err != nil {
		if err == ports.ErrAgentNotFound {
			return repository.FollowUp{}, apperr.NotFound("assignee not found")
		}
		return repository.FollowUp{}, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
	}

	return s.repo.CreateFollowUp(ctx, repository.CreateFollowUpParams{
		LeadID:        leadID,
		AssignedToID:  assignedToID,
		ScheduledDate: scheduledDate,
		Notes:         strPtr(notes),
	})
}

// PendingFollowUps lists open follow-ups, soonest first. Callers only see
// their own; supervisors see everything.
func (s *Service) PendingFollowUps(ctx context.Context, assignedToID *int64) ([]repository.FollowUp, error) {
	return s.repo.ListPendingFollowUps(ctx, assignedToID)
}

// CompleteFollowUp marks a follow-up done.
func (s *Service) CompleteFollowUp(ctx context.Context, id int64) (repository.FollowUp, error) {
	followUp, err := s.repo.CompleteFollowUp(ctx, id, s.now())
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.FollowUp{}, apperr.NotFound("follow-up not found")
		}
		return repository.FollowUp{}, err
	}
	return followUp, nil
}
