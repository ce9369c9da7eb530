package handler

import (
	"net/http"
	"strconv"

	"travelcrm_backend/internal/agents/service"
	"travelcrm_backend/internal/agents/transport"
	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/platform/httpkit"
	"travelcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the caller directory.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new callers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the caller directory routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/presence", h.SetPresence)
	rg.POST("/bulk-presence", h.BulkSetPresence)
}

// List handles GET /api/v1/callers
func (h *Handler) List(c *gin.Context) {
	callers, err := h.svc.Callers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"callers": transport.ToCallerResponses(callers)})
}

// GetByID handles GET /api/v1/callers/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	caller, err := h.svc.GetCaller(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCallerResponse(caller))
}

// SetPresence handles PATCH /api/v1/callers/:id/presence
func (h *Handler) SetPresence(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if !domain.CanToggleCallerPresence(identity.Role()) {
		httpkit.Error(c, http.StatusForbidden, "not allowed to change caller presence", nil)
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.SetPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	caller, err := h.svc.SetPresence(c.Request.Context(), id, *req.Present)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCallerResponse(caller))
}

// BulkSetPresence handles POST /api/v1/callers/bulk-presence
func (h *Handler) BulkSetPresence(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if !domain.CanToggleCallerPresence(identity.Role()) {
		httpkit.Error(c, http.StatusForbidden, "not allowed to change caller presence", nil)
		return
	}

	var req transport.BulkPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.BulkSetPresence(c.Request.Context(), req.CallerIDs, *req.Present)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}
