// Package subscription provides HTTP handlers for subscription lifecycle operations.
package subscription

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

// Handler handles subscription lifecycle operations
type Handler struct {
	createUseCase     *usecases.CreateSubscriptionUseCase
	getUseCase        *usecases.GetSubscriptionUseCase
	cancelUseCase     *usecases.CancelSubscriptionUseCase
	reactivateUseCase *usecases.ReactivateSubscriptionUseCase
	upgradeUseCase    *usecases.RequestPlanUpgradeUseCase
	logger            logger.Interface
}

// NewHandler creates a new subscription handler
func NewHandler(
	createUC *usecases.CreateSubscriptionUseCase,
	getUC *usecases.GetSubscriptionUseCase,
	cancelUC *usecases.CancelSubscriptionUseCase,
	reactivateUC *usecases.ReactivateSubscriptionUseCase,
	upgradeUC *usecases.RequestPlanUpgradeUseCase,
	logger logger.Interface,
) *Handler {
	return &Handler{
		createUseCase:     createUC,
		getUseCase:        getUC,
		cancelUseCase:     cancelUC,
		reactivateUseCase: reactivateUC,
		upgradeUseCase:    upgradeUC,
		logger:            logger,
	}
}

// CreateSubscriptionRequest represents the request to sign a tenant up
type CreateSubscriptionRequest struct {
	TenantID     uint   `json:"tenant_id" binding:"required"`
	PlanCode     string `json:"plan_code" binding:"required"`
	BillingCycle string `json:"billing_cycle" binding:"required,oneof=daily monthly annual"`
	NumberOfDays int    `json:"number_of_days"`
}

// CancelSubscriptionRequest represents the request to cancel a subscription
type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReactivateSubscriptionRequest represents the request to revive a subscription
type ReactivateSubscriptionRequest struct {
	PlanCode string `json:"plan_code"`
}

// UpgradeRequest represents the request to schedule a plan change
type UpgradeRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

// ParseTenantID parses the tenant ID from the URL parameter
func ParseTenantID(c *gin.Context) (uint, error) {
	tenantID, err := strconv.ParseUint(c.Param("tenant_id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(tenantID), nil
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cmd := usecases.CreateSubscriptionCommand{
		TenantID:     req.TenantID,
		PlanCode:     req.PlanCode,
		BillingCycle: req.BillingCycle,
		NumberOfDays: req.NumberOfDays,
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to create subscription", "error", err, "tenant_id", req.TenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Subscription created successfully", result)
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, err := ParseTenantID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	sub, err := h.getUseCase.Execute(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Errorw("failed to get subscription", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, sub)
}

func (h *Handler) Cancel(c *gin.Context) {
	tenantID, err := ParseTenantID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	var req CancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for cancel subscription", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "reason is required")
		return
	}

	cmd := usecases.CancelSubscriptionCommand{
		TenantID: tenantID,
		Reason:   req.Reason,
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to cancel subscription", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled successfully", result)
}

func (h *Handler) Reactivate(c *gin.Context) {
	tenantID, err := ParseTenantID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	var req ReactivateSubscriptionRequest
	// Allow empty body - plan_code is optional
	_ = c.ShouldBindJSON(&req)

	cmd := usecases.ReactivateSubscriptionCommand{
		TenantID: tenantID,
		PlanCode: req.PlanCode,
	}

	result, err := h.reactivateUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to reactivate subscription", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription reactivated successfully", result)
}

func (h *Handler) RequestUpgrade(c *gin.Context) {
	tenantID, err := ParseTenantID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for plan upgrade", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "plan_code is required")
		return
	}

	cmd := usecases.RequestPlanUpgradeCommand{
		TenantID: tenantID,
		PlanCode: req.PlanCode,
	}

	result, err := h.upgradeUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to request plan upgrade", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan upgrade scheduled for next payment", result)
}
