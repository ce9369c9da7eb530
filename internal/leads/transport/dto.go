// Package transport defines the request and response shapes of the leads
// API. Validation tags mirror the operation bounds: id lists 1..500, pull
// limits up to 1000, previews capped at 500.
package transport

import (
	"fmt"
	"time"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/internal/leads/service"
)

const dateLayout = "2006-01-02"

// =====================================
// Requests
// =====================================

// CreateLeadRequest is the request body for creating one lead manually.
type CreateLeadRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"required"`
	Company      string `json:"company,omitempty" validate:"max=200"`
	City         string `json:"city,omitempty" validate:"max=100"`
	State        string `json:"state,omitempty" validate:"max=100"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
	Category     string `json:"category" validate:"required,oneof=FRANCHISE PACKAGE"`
	AssignedToID int64  `json:"assignedToId" validate:"required,gt=0"`
}

// ConvertLeadRequest is the request body for a category conversion.
type ConvertLeadRequest struct {
	NewCategory  string `json:"newCategory" validate:"required,oneof=FRANCHISE PACKAGE"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
	AssignedToID *int64 `json:"assignedToId,omitempty" validate:"omitempty,gt=0"`
}

// UpdateStatusRequest is the request body for a lifecycle status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=NEW CONTACTED INTERESTED NOT_INTERESTED FOLLOW_UP CONVERTED LOST"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

// AddActivityRequest is the request body for a manual timeline entry.
type AddActivityRequest struct {
	Type        string `json:"type" validate:"required,oneof=CALL EMAIL MEETING NOTE"`
	Description string `json:"description" validate:"required,max=1000"`
}

// PullByIDsRequest is the request body for pulling explicit leads.
type PullByIDsRequest struct {
	LeadIDs []int64 `json:"leadIds" validate:"required,min=1,max=500,dive,gt=0"`
	Reason  string  `json:"reason,omitempty" validate:"max=500"`
}

// PullFilterRequest carries the optional pull predicate fields. Dates are
// inclusive calendar days.
type PullFilterRequest struct {
	CallerID  *int64   `json:"callerId,omitempty" validate:"omitempty,gt=0"`
	CallerIDs []int64  `json:"callerIds,omitempty" validate:"omitempty,dive,gt=0"`
	FromDate  string   `json:"fromDate,omitempty"`
	ToDate    string   `json:"toDate,omitempty"`
	Category  string   `json:"category,omitempty" validate:"omitempty,oneof=FRANCHISE PACKAGE"`
	Status    string   `json:"status,omitempty" validate:"omitempty,oneof=NEW CONTACTED INTERESTED NOT_INTERESTED FOLLOW_UP CONVERTED LOST"`
	Statuses  []string `json:"statuses,omitempty" validate:"omitempty,dive,oneof=NEW CONTACTED INTERESTED NOT_INTERESTED FOLLOW_UP CONVERTED LOST"`
	Limit     int      `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// PullByFilterRequest is the request body for a filter pull.
type PullByFilterRequest struct {
	PullFilterRequest
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// QuarantineFilterRequest carries the optional quarantine predicate fields.
type QuarantineFilterRequest struct {
	IDs              []int64 `json:"ids,omitempty" validate:"omitempty,dive,gt=0"`
	FromDate         string  `json:"fromDate,omitempty"`
	ToDate           string  `json:"toDate,omitempty"`
	OriginalStatus   string  `json:"originalStatus,omitempty" validate:"omitempty,oneof=NEW CONTACTED INTERESTED NOT_INTERESTED FOLLOW_UP CONVERTED LOST"`
	OriginalCategory string  `json:"originalCategory,omitempty" validate:"omitempty,oneof=FRANCHISE PACKAGE"`
	Exported         *bool   `json:"exported,omitempty"`
	Limit            int     `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// ExportRequest selects quarantine rows for export by ids and/or filter.
type ExportRequest struct {
	PulledLeadIDs []int64 `json:"pulledLeadIds,omitempty" validate:"omitempty,max=500,dive,gt=0"`
	Category      string  `json:"category,omitempty" validate:"omitempty,oneof=FRANCHISE PACKAGE"`
	FromDate      string  `json:"fromDate,omitempty"`
	ToDate        string  `json:"toDate,omitempty"`
	PulledByID    *int64  `json:"pulledById,omitempty" validate:"omitempty,gt=0"`
}

// PrepareUploadRequest selects exported quarantine rows for re-upload.
type PrepareUploadRequest struct {
	PulledLeadIDs []int64 `json:"pulledLeadIds" validate:"required,min=1,max=500,dive,gt=0"`
}

// TransferByIDsRequest is the request body for transferring explicit
// quarantine rows back to the active table.
type TransferByIDsRequest struct {
	PulledLeadIDs []int64 `json:"pulledLeadIds" validate:"required,min=1,max=500,dive,gt=0"`
	AssignedToID  int64   `json:"assignedToId" validate:"required,gt=0"`
	Notes         string  `json:"notes,omitempty" validate:"max=1000"`
}

// TransferByFilterRequest is the request body for a filter transfer.
type TransferByFilterRequest struct {
	QuarantineFilterRequest
	AssignedToID int64  `json:"assignedToId" validate:"required,gt=0"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
}

// TransferPreviewRequest runs the transfer predicate without mutating.
type TransferPreviewRequest struct {
	QuarantineFilterRequest
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// ListQuarantineRequest pages the quarantine listing.
type ListQuarantineRequest struct {
	Page             int    `form:"page" validate:"omitempty,min=1"`
	PageSize         int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	OriginalStatus   string `form:"originalStatus" validate:"omitempty,oneof=NEW CONTACTED INTERESTED NOT_INTERESTED FOLLOW_UP CONVERTED LOST"`
	OriginalCategory string `form:"originalCategory" validate:"omitempty,oneof=FRANCHISE PACKAGE"`
	Exported         *bool  `form:"exported"`
	FromDate         string `form:"fromDate"`
	ToDate           string `form:"toDate"`
}

// ScheduleFollowUpRequest is the request body for a follow-up reminder.
type ScheduleFollowUpRequest struct {
	AssignedToID  int64  `json:"assignedToId" validate:"required,gt=0"`
	ScheduledDate string `json:"scheduledDate" validate:"required"`
	Notes         string `json:"notes,omitempty" validate:"max=1000"`
}

// =====================================
// Filter conversion
// =====================================

// ToPullFilter converts the request predicate to the repository filter.
func (r PullFilterRequest) ToPullFilter() (repository.PullFilter, error) {
	filter := repository.PullFilter{
		CallerID:  r.CallerID,
		CallerIDs: r.CallerIDs,
		Limit:     r.Limit,
	}

	from, to, err := parseDateRange(r.FromDate, r.ToDate)
	if err != nil {
		return repository.PullFilter{}, err
	}
	filter.FromDate = from
	filter.ToDate = to

	if r.Category != "" {
		category := domain.Category(r.Category)
		filter.Category = &category
	}
	if r.Status != "" {
		status := domain.Status(r.Status)
		filter.Status = &status
	} else if len(r.Statuses) > 0 {
		statuses := make([]domain.Status, len(r.Statuses))
		for i, s := range r.Statuses {
			statuses[i] = domain.Status(s)
		}
		filter.Statuses = statuses
	}
	return filter, nil
}

// ToQuarantineFilter converts the request predicate to the repository filter.
func (r QuarantineFilterRequest) ToQuarantineFilter() (repository.QuarantineFilter, error) {
	filter := repository.QuarantineFilter{
		IDs:      r.IDs,
		Exported: r.Exported,
		Limit:    r.Limit,
	}

	from, to, err := parseDateRange(r.FromDate, r.ToDate)
	if err != nil {
		return repository.QuarantineFilter{}, err
	}
	filter.FromDate = from
	filter.ToDate = to

	if r.OriginalStatus != "" {
		status := domain.Status(r.OriginalStatus)
		filter.OriginalStatus = &status
	}
	if r.OriginalCategory != "" {
		category := domain.Category(r.OriginalCategory)
		filter.OriginalCategory = &category
	}
	return filter, nil
}

// ToExportFilter converts the export selection to the repository filter.
func (r ExportRequest) ToExportFilter() (repository.QuarantineFilter, error) {
	filter := repository.QuarantineFilter{PulledByID: r.PulledByID}

	from, to, err := parseDateRange(r.FromDate, r.ToDate)
	if err != nil {
		return repository.QuarantineFilter{}, err
	}
	filter.FromDate = from
	filter.ToDate = to

	if r.Category != "" {
		category := domain.Category(r.Category)
		filter.OriginalCategory = &category
	}
	return filter, nil
}

// ToListFilter converts the listing query to the repository filter.
func (r ListQuarantineRequest) ToListFilter() (repository.QuarantineFilter, error) {
	return QuarantineFilterRequest{
		FromDate:         r.FromDate,
		ToDate:           r.ToDate,
		OriginalStatus:   r.OriginalStatus,
		OriginalCategory: r.OriginalCategory,
		Exported:         r.Exported,
	}.ToQuarantineFilter()
}

// parseDateRange parses inclusive calendar-day bounds: the from date starts
// at midnight, the to date extends to the end of its day.
func parseDateRange(fromDate, toDate string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromDate != "" {
		t, err := time.Parse(dateLayout, fromDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fromDate: %s", fromDate)
		}
		from = &t
	}
	if toDate != "" {
		t, err := time.Parse(dateLayout, toDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid toDate: %s", toDate)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

// =====================================
// Responses
// =====================================

// LeadResponse is one active lead in API responses.
type LeadResponse struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            *string    `json:"email,omitempty"`
	Phone            string     `json:"phone"`
	Company          *string    `json:"company,omitempty"`
	City             *string    `json:"city,omitempty"`
	State            *string    `json:"state,omitempty"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	AssignedToID     *int64     `json:"assignedToId,omitempty"`
	UploadedByID     *int64     `json:"uploadedById,omitempty"`
	ConvertedByID    *int64     `json:"convertedById,omitempty"`
	ConvertedAt      *time.Time `json:"convertedAt,omitempty"`
	OriginalCategory *string    `json:"originalCategory,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ToLeadResponse maps a lead row to its API shape.
func ToLeadResponse(l repository.Lead) LeadResponse {
	var original *string
	if l.OriginalCategory != nil {
		s := string(*l.OriginalCategory)
		original = &s
	}
	return LeadResponse{
		ID:               l.ID,
		Name:             l.Name,
		Email:            l.Email,
		Phone:            l.Phone,
		Company:          l.Company,
		City:             l.City,
		State:            l.State,
		Category:         string(l.Category),
		Status:           string(l.Status),
		AssignedToID:     l.AssignedToID,
		UploadedByID:     l.UploadedByID,
		ConvertedByID:    l.ConvertedByID,
		ConvertedAt:      l.ConvertedAt,
		OriginalCategory: original,
		Notes:            l.Notes,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// ToLeadResponses maps a slice of lead rows.
func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i, l := range leads {
		out[i] = ToLeadResponse(l)
	}
	return out
}

// PulledLeadResponse is one quarantine row in API responses.
type PulledLeadResponse struct {
	ID               int64      `json:"id"`
	OriginalLeadID   int64      `json:"originalLeadId"`
	Name             string     `json:"name"`
	Email            *string    `json:"email,omitempty"`
	Phone            string     `json:"phone"`
	Company          *string    `json:"company,omitempty"`
	City             *string    `json:"city,omitempty"`
	State            *string    `json:"state,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	OriginalCategory string     `json:"originalCategory"`
	OriginalStatus   string     `json:"originalStatus"`
	PulledByID       int64      `json:"pulledById"`
	PulledFromID     int64      `json:"pulledFromId"`
	PullReason       string     `json:"pullReason,omitempty"`
	Exported         bool       `json:"exported"`
	ExportedAt       *time.Time `json:"exportedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ToPulledLeadResponse maps a quarantine row to its API shape.
func ToPulledLeadResponse(p repository.PulledLead) PulledLeadResponse {
	return PulledLeadResponse{
		ID:               p.ID,
		OriginalLeadID:   p.OriginalLeadID,
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		Company:          p.Company,
		City:             p.City,
		State:            p.State,
		Notes:            p.Notes,
		OriginalCategory: string(p.OriginalCategory),
		OriginalStatus:   string(p.OriginalStatus),
		PulledByID:       p.PulledByID,
		PulledFromID:     p.PulledFromID,
		PullReason:       p.PullReason,
		Exported:         p.Exported,
		ExportedAt:       p.ExportedAt,
		CreatedAt:        p.CreatedAt,
	}
}

// ToPulledLeadResponses maps a slice of quarantine rows.
func ToPulledLeadResponses(pulled []repository.PulledLead) []PulledLeadResponse {
	out := make([]PulledLeadResponse, len(pulled))
	for i, p := range pulled {
		out[i] = ToPulledLeadResponse(p)
	}
	return out
}

// SkippedRowResponse is one skipped upload row with its reason.
type SkippedRowResponse struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Reason string `json:"reason"`
}

// ToSkippedRowResponses maps skipped rows.
func ToSkippedRowResponses(rows []service.SkippedRow) []SkippedRowResponse {
	out := make([]SkippedRowResponse, len(rows))
	for i, r := range rows {
		out[i] = SkippedRowResponse{Row: r.Row, Name: r.Name, Phone: r.Phone, Reason: r.Reason}
	}
	return out
}

// PullFailureResponse is one failed pull item.
type PullFailureResponse struct {
	LeadID int64  `json:"leadId"`
	Reason string `json:"reason"`
}

// ToPullFailureResponses maps failed pull items.
func ToPullFailureResponses(failures []service.PullFailure) []PullFailureResponse {
	out := make([]PullFailureResponse, len(failures))
	for i, f := range failures {
		out[i] = PullFailureResponse{LeadID: f.LeadID, Reason: f.Reason}
	}
	return out
}

// TransferFailureResponse is one failed transfer item.
type TransferFailureResponse struct {
	PulledLeadID int64  `json:"pulledLeadId"`
	Phone        string `json:"phone,omitempty"`
	Reason       string `json:"reason"`
}

// ToTransferFailureResponses maps failed transfer items.
func ToTransferFailureResponses(failures []service.TransferFailure) []TransferFailureResponse {
	out := make([]TransferFailureResponse, len(failures))
	for i, f := range failures {
		out[i] = TransferFailureResponse{PulledLeadID: f.PulledLeadID, Phone: f.Phone, Reason: f.Reason}
	}
	return out
}

// ActivityResponse is one timeline entry.
type ActivityResponse struct {
	ID          int64     `json:"id"`
	LeadID      int64     `json:"leadId"`
	UserID      *int64    `json:"userId,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	OldStatus   *string   `json:"oldStatus,omitempty"`
	NewStatus   *string   `json:"newStatus,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToActivityResponses maps timeline entries.
func ToActivityResponses(activities []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = ActivityResponse{
			ID: a.ID, LeadID: a.LeadID, UserID: a.UserID, Type: a.Type,
			Description: a.Description, OldStatus: a.OldStatus,
			NewStatus: a.NewStatus, CreatedAt: a.CreatedAt,
		}
	}
	return out
}

// FollowUpResponse is one follow-up reminder.
type FollowUpResponse struct {
	ID            int64      `json:"id"`
	LeadID        int64      `json:"leadId"`
	AssignedToID  int64      `json:"assignedToId"`
	ScheduledDate time.Time  `json:"scheduledDate"`
	Notes         *string    `json:"notes,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ToFollowUpResponse maps one follow-up row.
func ToFollowUpResponse(f repository.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID: f.ID, LeadID: f.LeadID, AssignedToID: f.AssignedToID,
		ScheduledDate: f.ScheduledDate, Notes: f.Notes,
		Completed: f.Completed, CompletedAt: f.CompletedAt,
		CreatedAt: f.CreatedAt,
	}
}

// ToFollowUpResponses maps follow-up rows.
func ToFollowUpResponses(followUps []repository.FollowUp) []FollowUpResponse {
	out := make([]FollowUpResponse, len(followUps))
	for i, f := range followUps {
		out[i] = ToFollowUpResponse(f)
	}
	return out
}
