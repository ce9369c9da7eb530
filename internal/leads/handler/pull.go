package handler

import (
	"fmt"
	"net/http"
	"time"

	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/internal/leads/service"
	"travelcrm_backend/internal/leads/transport"
	"travelcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func nowStamp() string {
	return time.Now().Format("20060102_150405")
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PullByIDs handles POST /api/v1/leads/pull/by-ids
func (h *Handler) PullByIDs(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	var req transport.PullByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.PullByIDs(c.Request.Context(), req.LeadIDs, identity.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, pullResultPayload(result))
}

// PullByFilter handles POST /api/v1/leads/pull/by-filters
func (h *Handler) PullByFilter(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	var req transport.PullByFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToPullFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.svc.PullByFilter(c.Request.Context(), filter, identity.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, pullResultPayload(result))
}

// PreviewPull handles POST /api/v1/leads/pull/preview
func (h *Handler) PreviewPull(c *gin.Context) {
	if _, ok := requireManager(c); !ok {
		return
	}

	var req transport.PullFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToPullFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	candidates, err := h.svc.PreviewPull(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	preview := make([]gin.H, len(candidates))
	for i, candidate := range candidates {
		preview[i] = gin.H{
			"lead":          transport.ToLeadResponse(candidate.Lead),
			"alreadyPulled": candidate.AlreadyPulled,
			"canBePulled":   candidate.CanBePulled,
		}
	}
	httpkit.OK(c, gin.H{"candidates": preview, "count": len(preview)})
}

// CallerSummary handles GET /api/v1/leads/pull/caller-summary
func (h *Handler) CallerSummary(c *gin.Context) {
	if _, ok := requireManager(c); !ok {
		return
	}

	summaries, err := h.svc.CallerSummary(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]gin.H, len(summaries))
	for i, s := range summaries {
		out[i] = gin.H{
			"callerId":   s.CallerID,
			"callerName": s.CallerName,
			"role":       s.Role,
			"total":      s.Total,
			"new":        s.New,
			"contacted":  s.Contacted,
			"interested": s.Interested,
			"followUp":   s.FollowUp,
		}
	}
	httpkit.OK(c, gin.H{"callers": out})
}

// ListQuarantine handles GET /api/v1/leads/pulled
func (h *Handler) ListQuarantine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ListQuarantineRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToListFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	list, err := h.svc.ListQuarantine(c.Request.Context(), identity.Role(), identity.UserID(),
		filter, repository.ListParams{Page: req.Page, PageSize: req.PageSize})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"pulledLeads": transport.ToPulledLeadResponses(list.Items),
		"total":       list.Total,
	})
}

// GetPulledLead handles GET /api/v1/leads/pulled/:id
func (h *Handler) GetPulledLead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	pulled, err := h.svc.GetPulledLead(c.Request.Context(), identity.Role(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPulledLeadResponse(pulled))
}

// QuarantineStatistics handles GET /api/v1/leads/pulled/statistics
func (h *Handler) QuarantineStatistics(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	stats, err := h.svc.QuarantineStatistics(c.Request.Context(), identity.Role(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	byStatus := make([]gin.H, len(stats.ByStatus))
	for i, s := range stats.ByStatus {
		byStatus[i] = gin.H{"status": s.Status, "count": s.Count}
	}
	byCategory := make([]gin.H, len(stats.ByCategory))
	for i, s := range stats.ByCategory {
		byCategory[i] = gin.H{"category": s.Category, "count": s.Count}
	}
	byCaller := make([]gin.H, len(stats.ByCaller))
	for i, s := range stats.ByCaller {
		byCaller[i] = gin.H{"callerId": s.CallerID, "callerName": s.CallerName, "count": s.Count}
	}

	httpkit.OK(c, gin.H{
		"overall": gin.H{
			"total":       stats.Total,
			"exported":    stats.Exported,
			"notExported": stats.NotExported,
			"franchise":   stats.Franchise,
			"package":     stats.Package,
		},
		"byStatus":   byStatus,
		"byCategory": byCategory,
		"byCaller":   byCaller,
	})
}

// Export handles POST /api/v1/leads/pulled/export: streams the workbook as
// an attachment and marks the selected rows exported.
func (h *Handler) Export(c *gin.Context) {
	if _, ok := requireManager(c); !ok {
		return
	}

	var req transport.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToExportFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.svc.ExportQuarantine(c.Request.Context(), req.PulledLeadIDs, filter)
	if httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("pulled_leads_%s.xlsx", nowStamp())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, result.Data)
}

// PrepareUpload handles POST /api/v1/leads/pulled/prepare-upload
func (h *Handler) PrepareUpload(c *gin.Context) {
	if _, ok := requireManager(c); !ok {
		return
	}

	var req transport.PrepareUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rows, err := h.svc.PrepareUpload(c.Request.Context(), req.PulledLeadIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": rows, "count": len(rows)})
}

func pullResultPayload(result *service.PullResult) gin.H {
	deleted := make([]gin.H, len(result.Deleted))
	for i, d := range result.Deleted {
		deleted[i] = gin.H{"id": d.ID, "name": d.Name, "phone": d.Phone}
	}
	return gin.H{
		"pulled":  transport.ToPulledLeadResponses(result.Pulled),
		"failed":  transport.ToPullFailureResponses(result.Failed),
		"deleted": deleted,
		"summary": gin.H{
			"pulled": len(result.Pulled),
			"failed": len(result.Failed),
		},
	}
}
