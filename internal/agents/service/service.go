// Package service exposes the caller directory: listing callers per
// category pool and toggling their presence for distribution.
package service

import (
	"context"

	"travelcrm_backend/internal/agents/repository"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/platform/apperr"
	"travelcrm_backend/platform/logger"
)

// Service answers caller directory queries.
type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

// New wires the caller directory service.
func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Callers lists the active callers of both pools.
func (s *Service) Callers(ctx context.Context) ([]repository.Caller, error) {
	return s.repo.ListByRoles(ctx, []string{
		domain.RoleFranchiseCaller, domain.RolePackageCaller,
	})
}

// CallersForCategory lists the active callers serving one category,
// optionally including those marked absent.
func (s *Service) CallersForCategory(ctx context.Context, category domain.Category, includeAbsent bool) ([]repository.Caller, error) {
	return s.repo.ListCallers(ctx, category.CallerRole(), !includeAbsent)
}

// GetCaller fetches one user by id.
func (s *Service) GetCaller(ctx context.Context, id int64) (repository.Caller, error) {
	caller, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Caller{}, apperr.NotFound("caller not found")
		}
		return repository.Caller{}, err
	}
	return caller, nil
}

// SetPresence flips one caller's presence flag.
func (s *Service) SetPresence(ctx context.Context, id int64, present bool) (repository.Caller, error) {
	caller, err := s.repo.SetPresence(ctx, id, present)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Caller{}, apperr.NotFound("caller not found")
		}
		return repository.Caller{}, err
	}
	s.log.Info("caller_presence_changed", "caller_id", id, "present", present)
	return caller, nil
}

// BulkSetPresence flips presence for a set of callers.
func (s *Service) BulkSetPresence(ctx context.Context, ids []int64, present bool) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("caller ids are required")
	}
	updated, err := s.repo.BulkSetPresence(ctx, ids, present)
	if err != nil {
		return 0, err
	}
	s.log.Info("caller_presence_bulk_changed", "count", updated, "present", present)
	return updated, nil
}
