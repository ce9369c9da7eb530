// Package adapters bridges module boundaries: thin translations from one
// module's service to another module's port, with no business logic of
// their own.
package adapters

import (
	"context"

	"travelcrm_backend/internal/agents/repository"
	agentsvc "travelcrm_backend/internal/agents/service"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/platform/apperr"
)

// AgentDirectoryAdapter exposes the agents module as the lead services'
// agent directory.
type AgentDirectoryAdapter struct {
	agents *agentsvc.Service
}

// NewAgentDirectoryAdapter wires the adapter.
func NewAgentDirectoryAdapter(agents *agentsvc.Service) *AgentDirectoryAdapter {
	return &AgentDirectoryAdapter{agents: agents}
}

var _ ports.AgentDirectory = (*AgentDirectoryAdapter)(nil)

// EligibleAgents returns the active callers serving the category, ordered
// by id ascending.
func (a *AgentDirectoryAdapter) EligibleAgents(ctx context.Context, category domain.Category, includeAbsent bool) ([]ports.Agent, error) {
	callers, err := a.agents.CallersForCategory(ctx, category, includeAbsent)
	if err != nil {
		return nil, err
	}
	agents := make([]ports.Agent, len(callers))
	for i, c := range callers {
		agents[i] = toAgent(c)
	}
	return agents, nil
}

// GetAgent fetches one agent by id.
func (a *AgentDirectoryAdapter) GetAgent(ctx context.Context, id int64) (ports.Agent, error) {
	caller, err := a.agents.GetCaller(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return ports.Agent{}, ports.ErrAgentNotFound
		}
		return ports.Agent{}, err
	}
	return toAgent(caller), nil
}

func toAgent(c repository.Caller) ports.Agent {
	return ports.Agent{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		Active:    c.IsActive,
		Present:   c.IsPresent,
	}
}
