// Package ports declares the outbound interfaces the lead services depend
// on. Implementations live in the owning modules.
package ports

import (
	"context"
	"errors"

	"travelcrm_backend/internal/leads/domain"
)

// ErrAgentNotFound is returned when an agent id does not resolve.
var ErrAgentNotFound = errors.New("agent not found")

// Agent is the slice of the user directory the lead services need.
type Agent struct {
	ID        int64
	FirstName string
	LastName  string
	Role      string
	Active    bool
	Present   bool
}

// FullName returns the agent's display name.
func (a Agent) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// AgentDirectory resolves distribution targets from the user directory.
type AgentDirectory interface {
	// EligibleAgents returns the active callers serving the category,
	// ordered by id ascending. When includeAbsent is false only callers
	// marked present are returned. An empty pool is not an error.
	EligibleAgents(ctx context.Context, category domain.Category, includeAbsent bool) ([]Agent, error)

	// GetAgent fetches one agent by id; ErrAgentNotFound when missing.
	GetAgent(ctx context.Context, id int64) (Agent, error)
}
