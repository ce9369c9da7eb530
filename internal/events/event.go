// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"travelcrm_backend/platform/events"
	"travelcrm_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadsDistributed is published after a distribution batch commits.
type LeadsDistributed struct {
	BaseEvent
	Category   string  `json:"category"`
	UploaderID int64   `json:"uploaderId"`
	LeadIDs    []int64 `json:"leadIds"`
	Skipped    int     `json:"skipped"`
}

func (e LeadsDistributed) EventName() string { return "leads.distributed" }

// LeadConverted is published when a lead changes category.
type LeadConverted struct {
	BaseEvent
	LeadID       int64  `json:"leadId"`
	FromCategory string `json:"fromCategory"`
	ToCategory   string `json:"toCategory"`
	ConvertedBy  int64  `json:"convertedBy"`
	AssignedTo   int64  `json:"assignedTo"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// LeadsPulled is published after a pull batch commits.
type LeadsPulled struct {
	BaseEvent
	PulledBy int64   `json:"pulledBy"`
	Method   string  `json:"method"` // by_ids or by_filters
	PulledID []int64 `json:"pulledIds"`
	Failed   int     `json:"failed"`
}

func (e LeadsPulled) EventName() string { return "leads.pulled" }

// LeadsTransferred is published after a transfer batch commits.
type LeadsTransferred struct {
	BaseEvent
	TransferredBy int64   `json:"transferredBy"`
	AssignedTo    int64   `json:"assignedTo"`
	Method        string  `json:"method"`
	NewLeadIDs    []int64 `json:"newLeadIds"`
	Failed        int     `json:"failed"`
}

func (e LeadsTransferred) EventName() string { return "leads.transferred" }
