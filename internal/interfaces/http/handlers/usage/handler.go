// Package usage provides HTTP handlers for plan limit enforcement.
package usage

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

type Handler struct {
	usageService *usecases.UsageService
	logger       logger.Interface
}

func NewHandler(usageService *usecases.UsageService, logger logger.Interface) *Handler {
	return &Handler{
		usageService: usageService,
		logger:       logger,
	}
}

// AdjustUsageRequest adjusts a resource counter after a creation or
// deletion committed in the platform database.
type AdjustUsageRequest struct {
	Resource string `json:"resource" binding:"required,oneof=shops employees products"`
	Count    uint   `json:"count"`
}

// SyncUsageRequest overwrites all counters with recounted truth.
type SyncUsageRequest struct {
	Shops     uint `json:"shops"`
	Employees uint `json:"employees"`
	Products  uint `json:"products"`
}

func parseTenantID(c *gin.Context) (uint, bool) {
	tenantID, err := strconv.ParseUint(c.Param("tenant_id"), 10, 64)
	if err != nil || tenantID == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return 0, false
	}
	return uint(tenantID), true
}

func parseResourceQuery(c *gin.Context) (vo.Resource, bool) {
	resource, err := vo.ParseResource(c.Query("resource"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid resource, use shops, employees, or products")
		return "", false
	}
	return resource, true
}

// CheckLimit answers whether the tenant may add increment more of a
// resource. Read-only; nothing is reserved.
func (h *Handler) CheckLimit(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	resource, ok := parseResourceQuery(c)
	if !ok {
		return
	}

	increment := uint(1)
	if incStr := c.Query("increment"); incStr != "" {
		inc, err := strconv.ParseUint(incStr, 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid increment")
			return
		}
		increment = uint(inc)
	}

	result, err := h.usageService.CheckLimit(c.Request.Context(), tenantID, resource, increment)
	if err != nil {
		h.logger.Errorw("failed to check usage limit", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, result)
}

// Enforce is the pre-creation gate. Collaborators call it before inserting
// a resource; a denial comes back as 403 with the counter snapshot so the
// caller can render the refusal.
func (h *Handler) Enforce(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req AdjustUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for usage enforcement", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resource, err := vo.ParseResource(req.Resource)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid resource")
		return
	}

	increment := req.Count
	if increment == 0 {
		increment = 1
	}

	result, err := h.usageService.EnforceLimit(c.Request.Context(), tenantID, resource, increment)
	if err != nil {
		if errors.Is(err, billing.ErrUsageLimitExceeded) {
			c.JSON(http.StatusForbidden, utils.APIResponse{
				Success: false,
				Data:    result,
				Error: &utils.ErrorInfo{
					Type:    "usage_limit_exceeded",
					Message: err.Error(),
				},
			})
			return
		}
		h.logger.Errorw("failed to enforce usage limit", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, result)
}

func (h *Handler) Increment(c *gin.Context) {
	h.adjust(c, h.usageService.IncrementUsage, "Usage incremented")
}

func (h *Handler) Decrement(c *gin.Context) {
	h.adjust(c, h.usageService.DecrementUsage, "Usage decremented")
}

func (h *Handler) adjust(c *gin.Context, op func(ctx context.Context, tenantID uint, resource vo.Resource, count uint) error, message string) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req AdjustUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for usage adjustment", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resource, err := vo.ParseResource(req.Resource)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid resource")
		return
	}

	count := req.Count
	if count == 0 {
		count = 1
	}

	if err := op(c.Request.Context(), tenantID, resource, count); err != nil {
		h.logger.Errorw("failed to adjust usage", "error", err, "tenant_id", tenantID, "resource", resource)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, nil)
}

func (h *Handler) Sync(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	var req SyncUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for usage sync", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.usageService.SyncUsageCounts(c.Request.Context(), tenantID, req.Shops, req.Employees, req.Products); err != nil {
		h.logger.Errorw("failed to sync usage counts", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Usage counts synchronized", nil)
}

func (h *Handler) Summary(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	summary, err := h.usageService.GetUsageSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Errorw("failed to get usage summary", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, summary)
}
