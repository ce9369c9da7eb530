package handler

import (
	"net/http"

	"travelcrm_backend/internal/leads/service"
	"travelcrm_backend/internal/leads/transport"
	"travelcrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// TransferByIDs handles POST /api/v1/leads/transfer/by-ids
func (h *Handler) TransferByIDs(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	var req transport.TransferByIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.TransferByIDs(c.Request.Context(), req.PulledLeadIDs,
		req.AssignedToID, identity.UserID(), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transferResultPayload(result))
}

// TransferByFilter handles POST /api/v1/leads/transfer/by-filters
func (h *Handler) TransferByFilter(c *gin.Context) {
	identity, ok := requireManager(c)
	if !ok {
		return
	}

	var req transport.TransferByFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToQuarantineFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.svc.TransferByFilter(c.Request.Context(), filter,
		req.AssignedToID, identity.UserID(), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transferResultPayload(result))
}

// PreviewTransfer handles POST /api/v1/leads/transfer/preview
func (h *Handler) PreviewTransfer(c *gin.Context) {
	if _, ok := requireManager(c); !ok {
		return
	}

	var req transport.TransferPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter, err := req.ToQuarantineFilter()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	filter.Limit = req.Limit

	candidates, err := h.svc.PreviewTransfer(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	preview := make([]gin.H, len(candidates))
	for i, candidate := range candidates {
		entry := gin.H{
			"pulledLead":  transport.ToPulledLeadResponse(candidate.PulledLead),
			"canTransfer": candidate.CanTransfer,
		}
		if candidate.DuplicateReason != "" {
			entry["duplicateReason"] = candidate.DuplicateReason
		}
		preview[i] = entry
	}
	httpkit.OK(c, gin.H{"candidates": preview, "count": len(preview)})
}

func transferResultPayload(result *service.TransferResult) gin.H {
	transferred := make([]gin.H, len(result.Transferred))
	for i, t := range result.Transferred {
		transferred[i] = gin.H{
			"newLeadId":    t.NewLeadID,
			"pulledLeadId": t.PulledLeadID,
			"name":         t.Name,
			"phone":        t.Phone,
		}
	}
	return gin.H{
		"transferred": transferred,
		"failed":      transport.ToTransferFailureResponses(result.Failed),
		"summary": gin.H{
			"transferred": len(result.Transferred),
			"failed":      len(result.Failed),
		},
	}
}
