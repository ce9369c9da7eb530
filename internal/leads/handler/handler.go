package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"travelcrm_backend/internal/leads/domain"
	"travelcrm_backend/internal/leads/service"
	"travelcrm_backend/internal/leads/transport"
	"travelcrm_backend/platform/excel"
	"travelcrm_backend/platform/httpkit"
	"travelcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgNotAllowed       = "not allowed to manage leads"
)

// Handler handles HTTP requests for the lead lifecycle.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the lead routes. The bulk limiter throttles the
// batch endpoints that move many rows per call.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, bulkLimiter gin.HandlerFunc) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/convert", h.Convert)
	rg.GET("/:id/activities", h.ListActivities)
	rg.POST("/:id/activities", h.AddActivity)
	rg.POST("/:id/followups", h.ScheduleFollowUp)

	rg.GET("/followups/pending", h.PendingFollowUps)
	rg.PATCH("/followups/:id/complete", h.CompleteFollowUp)

	rg.POST("/upload", bulkLimiter, h.Upload)
	rg.POST("/manual-upload", bulkLimiter, h.ManualUpload)

	rg.POST("/pull/by-ids", bulkLimiter, h.PullByIDs)
	rg.POST("/pull/by-filters", bulkLimiter, h.PullByFilter)
	rg.POST("/pull/preview", h.PreviewPull)
	rg.GET("/pull/caller-summary", h.CallerSummary)

	rg.GET("/pulled", h.ListQuarantine)
	rg.GET("/pulled/statistics", h.QuarantineStatistics)
	rg.GET("/pulled/:id", h.GetPulledLead)
	rg.POST("/pulled/export", bulkLimiter, h.Export)
	rg.POST("/pulled/prepare-upload", h.PrepareUpload)

	rg.POST("/transfer/by-ids", bulkLimiter, h.TransferByIDs)
	rg.POST("/transfer/by-filters", bulkLimiter, h.TransferByFilter)
	rg.POST("/transfer/preview", h.PreviewTransfer)
}

// requireManager aborts unless the caller may run pull/transfer/export/upload
// operations.
func requireManager(c *gin.Context) (httpkit.Identity, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, false
	}
	if !domain.CanManagePulls(identity.Role()) {
		httpkit.Error(c, http.StatusForbidden, msgNotAllowed, nil)
		return nil, false
	}
	return identity, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

// parseUploadForm reads the spreadsheet and optional column mapping from a
// multipart upload.
func (h *Handler) parseUploadForm(c *gin.Context) ([]excel.LeadRow, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return nil, false
	}

	var mapping map[string]string
	if raw := c.PostForm("columnMapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid column mapping", nil)
			return nil, false
		}
	}

	f, err := file.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return nil, false
	}
	defer f.Close()

	rows, err := excel.ParseLeadRows(f, mapping)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	return rows, true
}

// Upload handles POST /api/v1/leads/upload: distribute a spreadsheet
// round-robin across the present callers of a category.
func (h *Handler) Upload(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	category := domain.Category(c.PostForm("category"))
	if !category.Valid() {
		httpkit.Error(c, http.StatusBadRequest, "category must be FRANCHISE or PACKAGE", nil)
		return
	}

	rows, ok := h.parseUploadForm(c)
	if !ok {
		return
	}

	result, err := h.svc.Distribute(c.Request.Context(), rows, category, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{
		"created": transport.ToLeadResponses(result.Created),
		"skipped": transport.ToSkippedRowResponses(result.Skipped),
		"summary": gin.H{
			"totalRows":  result.Total,
			"successful": len(result.Created),
			"skipped":    len(result.Skipped),
		},
	})
}

// ManualUpload handles POST /api/v1/leads/manual-upload: upload a
// spreadsheet assigned wholesale to one caller.
func (h *Handler) ManualUpload(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	category := domain.Category(c.PostForm("category"))
	if !category.Valid() {
		httpkit.Error(c, http.StatusBadRequest, "category must be FRANCHISE or PACKAGE", nil)
		return
	}

	assignedToID, err := strconv.ParseInt(c.PostForm("assignedToId"), 10, 64)
	if err != nil || assignedToID <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "assignedToId is required", nil)
		return
	}

	rows, ok := h.parseUploadForm(c)
	if !ok {
		return
	}

	result, err := h.svc.UploadAssigned(c.Request.Context(), rows, category, assignedToID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{
		"created": transport.ToLeadResponses(result.Created),
		"failed":  transport.ToSkippedRowResponses(result.Failed),
		"summary": gin.H{
			"totalRows":  result.Total,
			"successful": len(result.Created),
			"failed":     len(result.Failed),
		},
	})
}

// Create handles POST /api/v1/leads: one manually entered lead.
func (h *Handler) Create(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.CreateManual(c.Request.Context(), service.CreateManualParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
		City:         req.City,
		State:        req.State,
		Notes:        req.Notes,
		Category:     domain.Category(req.Category),
		AssignedToID: req.AssignedToID,
		CreatorID:    identity.UserID(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

// GetByID handles GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Lead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// UpdateStatus handles PATCH /api/v1/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), id, domain.Status(req.Status), identity.UserID(), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// Convert handles POST /api/v1/leads/:id/convert
func (h *Handler) Convert(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Convert(c.Request.Context(), service.ConvertParams{
		LeadID:       id,
		NewCategory:  domain.Category(req.NewCategory),
		ConvertedBy:  identity.UserID(),
		Notes:        req.Notes,
		AssignedToID: req.AssignedToID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ListActivities handles GET /api/v1/leads/:id/activities
func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	activities, err := h.svc.Activities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"activities": transport.ToActivityResponses(activities)})
}

// AddActivity handles POST /api/v1/leads/:id/activities
func (h *Handler) AddActivity(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.AddActivity(c.Request.Context(), id, identity.UserID(), req.Type, req.Description)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{"status": "recorded"})
}

// ScheduleFollowUp handles POST /api/v1/leads/:id/followups
func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ScheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	scheduled, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid scheduledDate", nil)
		return
	}

	followUp, err := h.svc.ScheduleFollowUp(c.Request.Context(), id, req.AssignedToID, scheduled, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToFollowUpResponse(followUp))
}

// PendingFollowUps handles GET /api/v1/leads/followups/pending
func (h *Handler) PendingFollowUps(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	// Callers only see their own reminders.
	var assignedTo *int64
	if identity.HasRole(domain.RoleFranchiseCaller, domain.RolePackageCaller) {
		id := identity.UserID()
		assignedTo = &id
	}

	followUps, err := h.svc.PendingFollowUps(c.Request.Context(), assignedTo)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"followups": transport.ToFollowUpResponses(followUps)})
}

// CompleteFollowUp handles PATCH /api/v1/leads/followups/:id/complete
func (h *Handler) CompleteFollowUp(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	followUp, err := h.svc.CompleteFollowUp(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(followUp))
}
