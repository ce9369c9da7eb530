package repository

import (
	"time"

	"travelcrm_backend/internal/leads/domain"
)

// Lead is a row in the active leads table.
type Lead struct {
	ID               int64
	Name             string
	Email            *string
	Phone            string
	Company          *string
	City             *string
	State            *string
	Category         domain.Category
	Status           domain.Status
	AssignedToID     *int64
	UploadedByID     *int64
	ConvertedByID    *int64
	ConvertedAt      *time.Time
	OriginalCategory *domain.Category
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PulledLead is a row in the quarantine table. It snapshots the lead's
// descriptive fields at pull time; the source lead row no longer exists.
type PulledLead struct {
	ID               int64
	OriginalLeadID   int64
	Name             string
	Email            *string
	Phone            string
	Company          *string
	City             *string
	State            *string
	Notes            *string
	OriginalCategory domain.Category
	OriginalStatus   domain.Status
	PulledByID       int64
	PulledFromID     int64
	PullReason       string
	FilterCriteria   FilterCriteria
	Exported         bool
	ExportedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FilterCriteria records how a lead ended up in quarantine. Stored as JSONB.
type FilterCriteria struct {
	Method            string      `json:"method"`
	LeadIDs           []int64     `json:"leadIds,omitempty"`
	Filter            *PullFilter `json:"filter,omitempty"`
	OriginalLeadID    int64       `json:"originalLeadId"`
	DeletedFromSource bool        `json:"deletedFromSource"`
}

// Activity is an append-only audit entry on a lead's timeline.
type Activity struct {
	ID          int64
	LeadID      int64
	UserID      *int64
	Type        string
	Description string
	OldStatus   *string
	NewStatus   *string
	CreatedAt   time.Time
}

// TransferLog is an append-only audit record of a quarantine transfer batch.
type TransferLog struct {
	ID            int64
	TransferredBy int64
	AssignedTo    int64
	Method        string
	PulledLeadIDs []int64
	NewLeadIDs    []int64
	Notes         string
	CreatedAt     time.Time
}

// FollowUp schedules a reminder for a lead.
type FollowUp struct {
	ID            int64
	LeadID        int64
	AssignedToID  int64
	ScheduledDate time.Time
	Notes         *string
	Completed     bool
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PullFilter selects active leads for a bulk pull. At least one criterion
// must be set; Limit bounds the newest-first result set.
type PullFilter struct {
	CallerID  *int64            `json:"callerId,omitempty"`
	CallerIDs []int64           `json:"callerIds,omitempty"`
	FromDate  *time.Time        `json:"fromDate,omitempty"`
	ToDate    *time.Time        `json:"toDate,omitempty"`
	Category  *domain.Category  `json:"category,omitempty"`
	Status    *domain.Status    `json:"status,omitempty"`
	Statuses  []domain.Status   `json:"statuses,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

// HasCriteria reports whether any selection criterion is set (the limit
// alone does not count).
func (f PullFilter) HasCriteria() bool {
	return f.CallerID != nil || len(f.CallerIDs) > 0 ||
		f.FromDate != nil || f.ToDate != nil ||
		f.Category != nil || f.Status != nil || len(f.Statuses) > 0
}

// QuarantineFilter selects quarantined leads for listing, export or transfer.
type QuarantineFilter struct {
	IDs              []int64
	FromDate         *time.Time
	ToDate           *time.Time
	OriginalStatus   *domain.Status
	OriginalCategory *domain.Category
	Exported         *bool
	PulledByID       *int64
	Limit            int
}

// HasCriteria reports whether any selection criterion besides the limit is set.
func (f QuarantineFilter) HasCriteria() bool {
	return len(f.IDs) > 0 || f.FromDate != nil || f.ToDate != nil ||
		f.OriginalStatus != nil || f.OriginalCategory != nil ||
		f.Exported != nil || f.PulledByID != nil
}

// CreateLeadParams holds the fields for inserting an active lead.
type CreateLeadParams struct {
	Name             string
	Email            *string
	Phone            string
	Company          *string
	City             *string
	State            *string
	Category         domain.Category
	Status           domain.Status
	AssignedToID     *int64
	UploadedByID     *int64
	OriginalCategory *domain.Category
	Notes            *string
}

// ConvertLeadParams holds the single-row update applied by a conversion.
type ConvertLeadParams struct {
	LeadID           int64
	NewCategory      domain.Category
	OriginalCategory domain.Category
	AssignedToID     int64
	ConvertedByID    int64
	ConvertedAt      time.Time
}

// CreatePulledLeadParams holds the fields for inserting a quarantine snapshot.
type CreatePulledLeadParams struct {
	OriginalLeadID   int64
	Name             string
	Email            *string
	Phone            string
	Company          *string
	City             *string
	State            *string
	Notes            *string
	OriginalCategory domain.Category
	OriginalStatus   domain.Status
	PulledByID       int64
	PulledFromID     int64
	PullReason       string
	FilterCriteria   FilterCriteria
}

// AddActivityParams holds the fields for one timeline entry.
type AddActivityParams struct {
	LeadID      int64
	UserID      *int64
	Type        string
	Description string
	OldStatus   *string
	NewStatus   *string
}

// AddTransferLogParams holds the fields for one transfer audit record.
type AddTransferLogParams struct {
	TransferredBy int64
	AssignedTo    int64
	Method        string
	PulledLeadIDs []int64
	NewLeadIDs    []int64
	Notes         string
}

// CreateFollowUpParams holds the fields for scheduling a follow-up.
type CreateFollowUpParams struct {
	LeadID        int64
	AssignedToID  int64
	ScheduledDate time.Time
	Notes         *string
}

// ListParams pages a quarantine listing.
type ListParams struct {
	Page     int
	PageSize int
}

// CallerLeadSummary aggregates active leads per caller.
type CallerLeadSummary struct {
	CallerID   int64
	CallerName string
	Role       string
	Total      int
	New        int
	Contacted  int
	Interested int
	FollowUp   int
}

// PullStatistics aggregates the quarantine store for reporting.
type PullStatistics struct {
	Total       int
	Exported    int
	NotExported int
	Franchise   int
	Package     int
	ByStatus    []StatusCount
	ByCategory  []CategoryCount
	ByCaller    []CallerCount
}

// StatusCount is one by-status bucket.
type StatusCount struct {
	Status domain.Status
	Count  int
}

// CategoryCount is one by-category bucket.
type CategoryCount struct {
	Category domain.Category
	Count    int
}

// CallerCount is one by-source-agent bucket.
type CallerCount struct {
	CallerID   int64
	CallerName string
	Count      int
}
