// Package service implements the lead lifecycle operations: distribution,
// conversion, pull to quarantine, export, and transfer back to the active
// table. Each batch operation runs inside one database transaction with
// per-item partial success.
package service

import (
	"time"

	"travelcrm_backend/internal/events"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/platform/logger"
)

const timestampLayout = "2006-01-02 15:04:05"

// Service orchestrates the lead lifecycle against the repository and the
// agent directory.
type Service struct {
	repo   repository.LeadsRepository
	agents ports.AgentDirectory
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

// New wires a lead service.
func New(repo repository.LeadsRepository, agents ports.AgentDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		agents: agents,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}
}
