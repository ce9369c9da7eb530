package service

import (
	"context"
	"fmt"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/apperr"
)

// Lead fetches one active lead.
func (s *Service) Lead(ctx context.Context, id int64) (repository.Lead, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}
	return lead, nil
}

// UpdateStatus moves a lead to a new lifecycle status and records the change
// on its timeline.
func (s *Service) UpdateStatus(ctx context.Context, leadID int64, status domain.Status, actorID int64, notes string) (repository.Lead, error) {
	if !status.Valid() {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown lead status: %s", status))
	}

	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}

	var updated repository.Lead
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		updated, err = store.UpdateLeadStatus(ctx, leadID, status)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperr.NotFound("lead not found")
			}
			return err
		}

		description := fmt.Sprintf("Status changed from %s to %s", lead.Status, status)
		if notes != "" {
			description += fmt.Sprintf(". Notes: %s", notes)
		}
		oldStatus := string(lead.Status)
		newStatus := string(status)
		return store.AddActivity(ctx, repository.AddActivityParams{
			LeadID:      leadID,
			UserID:      &actorID,
			Type:        domain.ActivityStatusChange,
			Description: description,
			OldStatus:   &oldStatus,
			NewStatus:   &newStatus,
		})
	})
	if err != nil {
		return repository.Lead{}, err
	}
	return updated, nil
}

// AddActivity records one manual timeline entry (call, email, meeting, note).
func (s *Service) AddActivity(ctx context.Context, leadID int64, actorID int64, activityType, description string) error {
	if !domain.ValidActivityType(activityType) {
		return apperr.Validation(fmt.Sprintf("unknown activity type: %s", activityType))
	}

	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("lead not found")
		}
		return err
	}

	return s.repo.AddActivity(ctx, repository.AddActivityParams{
		LeadID:      leadID,
		UserID:      &actorID,
		Type:        activityType,
		Description: description,
	})
}

// Activities returns a lead's timeline, newest first.
func (s *Service) Activities(ctx context.Context, leadID int64) ([]repository.Activity, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return s.repo.ListActivities(ctx, leadID)
}
