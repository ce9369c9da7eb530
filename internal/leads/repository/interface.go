package repository

import (
	"context"
	"time"

	"travelcrm_backend/internal/leads/domain"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadStore provides access to the active leads table.
type LeadStore interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetLead(ctx context.Context, id int64) (Lead, error)
	LeadPhoneExists(ctx context.Context, phone string) (bool, error)
	SelectLeadsForPull(ctx context.Context, filter PullFilter) ([]Lead, error)
	ConvertLead(ctx context.Context, params ConvertLeadParams) (Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status domain.Status) (Lead, error)
	DeleteLead(ctx context.Context, id int64) error
	CallerLeadSummaries(ctx context.Context) ([]CallerLeadSummary, error)
}

// QuarantineStore provides access to the pulled leads table.
type QuarantineStore interface {
	CreatePulledLead(ctx context.Context, params CreatePulledLeadParams) (PulledLead, error)
	GetPulledLead(ctx context.Context, id int64) (PulledLead, error)
	UnexportedPullExists(ctx context.Context, phone string, pulledFromID int64) (bool, error)
	SelectPulledLeads(ctx context.Context, filter QuarantineFilter) ([]PulledLead, error)
	ListPulledLeads(ctx context.Context, scope domain.QuarantineScope, userID int64, filter QuarantineFilter, page ListParams) ([]PulledLead, int, error)
	MarkExported(ctx context.Context, ids []int64, at time.Time) (int, error)
	DeletePulledLead(ctx context.Context, id int64) error
	PullStatistics(ctx context.Context, scope domain.QuarantineScope, userID int64) (PullStatistics, error)
}

// ActivityStore records the append-only lead timeline.
type ActivityStore interface {
	AddActivity(ctx context.Context, params AddActivityParams) error
	ListActivities(ctx context.Context, leadID int64) ([]Activity, error)
}

// TransferLogStore records the append-only transfer audit trail.
type TransferLogStore interface {
	AddTransferLog(ctx context.Context, params AddTransferLogParams) error
}

// FollowUpStore manages lead follow-up reminders.
type FollowUpStore interface {
	CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error)
	ListPendingFollowUps(ctx context.Context, assignedToID *int64) ([]FollowUp, error)
	CompleteFollowUp(ctx context.Context, id int64, at time.Time) (FollowUp, error)
}

// =====================================
// Composite Interface
// =====================================

// Store is the complete data interface the lead services operate on,
// both directly and inside a transaction.
type Store interface {
	LeadStore
	QuarantineStore
	ActivityStore
	TransferLogStore
	FollowUpStore
}

// TxRunner executes a function within one database transaction. The Store
// passed to fn is bound to that transaction; returning an error rolls the
// whole transaction back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// LeadsRepository is what services depend on: the full store plus the
// transaction boundary.
type LeadsRepository interface {
	Store
	TxRunner
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)
