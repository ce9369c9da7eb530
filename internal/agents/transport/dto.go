package transport

import "travelcrm_backend/internal/agents/repository"

// SetPresenceRequest is the request body for toggling one caller's presence.
type SetPresenceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// BulkPresenceRequest is the request body for toggling presence on a set of
// callers.
type BulkPresenceRequest struct {
	CallerIDs []int64 `json:"callerIds" validate:"required,min=1,max=500,dive,gt=0"`
	Present   *bool   `json:"present" validate:"required"`
}

// CallerResponse is one caller in API responses.
type CallerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	IsPresent bool   `json:"isPresent"`
}

// ToCallerResponse maps a directory row to its API shape.
func ToCallerResponse(c repository.Caller) CallerResponse {
	return CallerResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Role:      c.Role,
		IsActive:  c.IsActive,
		IsPresent: c.IsPresent,
	}
}

// ToCallerResponses maps a slice of directory rows.
func ToCallerResponses(callers []repository.Caller) []CallerResponse {
	out := make([]CallerResponse, len(callers))
	for i, c := range callers {
		out[i] = ToCallerResponse(c)
	}
	return out
}
