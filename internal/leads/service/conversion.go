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

// ConvertParams holds one category conversion request.
type ConvertParams struct {
	LeadID       int64
	NewCategory  domain.Category
	ConvertedBy  int64
	Notes        string
	AssignedToID *int64
}

// Convert reclassifies a lead into the other category and hands it to a
// caller of the target pool. When no assignee is given the first present
// caller of the new category (lowest id) receives it. The pre-conversion
// category is recorded as the lead's original category on every conversion.
func (s *Service) Convert(ctx context.Context, params ConvertParams) (repository.Lead, error) {
	if !params.NewCategory.Valid() {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown lead category: %s", params.NewCategory))
	}

	lead, err := s.repo.GetLead(ctx, params.LeadID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}

	if lead.Category == params.NewCategory {
		return repository.Lead{}, apperr.Policy("Lead is already of this type")
	}

	assignedTo, err := s.resolveConversionAssignee(ctx, params)
	if err != nil {
		return repository.Lead{}, err
	}

	fromCategory := lead.Category
	var converted repository.Lead
	err = s.repo.InTx(ctx, func(store repository.Store) error {
		updated, err := store.ConvertLead(ctx, repository.ConvertLeadParams{
			LeadID:           lead.ID,
			NewCategory:      params.NewCategory,
			OriginalCategory: fromCategory,
			AssignedToID:     assignedTo,
			ConvertedByID:    params.ConvertedBy,
			ConvertedAt:      s.now(),
		})
		if err != nil {
			if err == repository.ErrNotFound {
				return apperr.NotFound("lead not found")
			}
			return err
		}
		converted = updated

		description := fmt.Sprintf("Lead converted from %s to %s.", fromCategory, params.NewCategory)
		if params.Notes != "" {
			description += " " + params.Notes
		}
		oldStatus := string(fromCategory)
		newStatus := string(params.NewCategory)
		return store.AddActivity(ctx, repository.AddActivityParams{
			LeadID:      lead.ID,
			UserID:      &params.ConvertedBy,
			Type:        domain.ActivityConversion,
			Description: description,
			OldStatus:   &oldStatus,
			NewStatus:   &newStatus,
		})
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadConverted{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		FromCategory: string(fromCategory),
		ToCategory:   string(params.NewCategory),
		ConvertedBy:  params.ConvertedBy,
		AssignedTo:   assignedTo,
	})

	return converted, nil
}

// resolveConversionAssignee picks the target caller: the explicit assignee
// when given (verified against the directory), otherwise the first present
// caller of the new category.
func (s *Service) resolveConversionAssignee(ctx context.Context, params ConvertParams) (int64, error) {
	if params.AssignedToID != nil {
		if _, err := s.agents.GetAgent(ctx, *params.AssignedToID); err != nil {
			if err == ports.ErrAgentNotFound {
				return 0, apperr.NotFound("assignee not found")
			}
			return 0, apperr.Wrap(apperr.KindInternal, "loading assignee", err)
		}
		return *params.AssignedToID, nil
	}

	callers, err := s.agents.EligibleAgents(ctx, params.NewCategory, false)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "loading callers", err)
	}
	if len(callers) == 0 {
		return 0, apperr.Policy(fmt.Sprintf("No active %s callers found", params.NewCategory))
	}
	return callers[0].ID, nil
}
