// Package plan provides HTTP handlers for catalog management.
package plan

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

type Handler struct {
	createUseCase *usecases.CreatePlanUseCase
	updateUseCase *usecases.UpdatePlanUseCase
	listUseCase   *usecases.ListPlansUseCase
	logger        logger.Interface
}

func NewHandler(
	createUC *usecases.CreatePlanUseCase,
	updateUC *usecases.UpdatePlanUseCase,
	listUC *usecases.ListPlansUseCase,
	logger logger.Interface,
) *Handler {
	return &Handler{
		createUseCase: createUC,
		updateUseCase: updateUC,
		listUseCase:   listUC,
		logger:        logger,
	}
}

// CreatePlanRequest represents the request to add a plan to the catalog.
// Prices are in minor currency units.
type CreatePlanRequest struct {
	Code         string `json:"code" binding:"required,plancode"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	DailyPrice   uint64 `json:"daily_price"`
	MonthlyPrice uint64 `json:"monthly_price"`
	AnnualPrice  uint64 `json:"annual_price"`
	MaxShops     uint   `json:"max_shops"`
	MaxEmployees uint   `json:"max_employees"`
	MaxProducts  uint   `json:"max_products"`
	TrialDays    int    `json:"trial_days"`
}

// UpdatePlanRequest carries partial plan edits; omitted fields stay as-is.
type UpdatePlanRequest struct {
	DailyPrice   *uint64 `json:"daily_price"`
	MonthlyPrice *uint64 `json:"monthly_price"`
	AnnualPrice  *uint64 `json:"annual_price"`
	MaxShops     *uint   `json:"max_shops"`
	MaxEmployees *uint   `json:"max_employees"`
	MaxProducts  *uint   `json:"max_products"`
	Status       *string `json:"status" binding:"omitempty,oneof=active inactive deprecated"`
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cmd := usecases.CreatePlanCommand{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		DailyPrice:   req.DailyPrice,
		MonthlyPrice: req.MonthlyPrice,
		AnnualPrice:  req.AnnualPrice,
		MaxShops:     req.MaxShops,
		MaxEmployees: req.MaxEmployees,
		MaxProducts:  req.MaxProducts,
		TrialDays:    req.TrialDays,
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to create plan", "error", err, "code", req.Code)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Plan created successfully", result)
}

func (h *Handler) Update(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "plan code is required")
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update plan", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	cmd := usecases.UpdatePlanCommand{
		Code:         code,
		DailyPrice:   req.DailyPrice,
		MonthlyPrice: req.MonthlyPrice,
		AnnualPrice:  req.AnnualPrice,
		MaxShops:     req.MaxShops,
		MaxEmployees: req.MaxEmployees,
		MaxProducts:  req.MaxProducts,
		Status:       req.Status,
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to update plan", "error", err, "code", code)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated successfully", result)
}

func (h *Handler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	plans, err := h.listUseCase.Execute(c.Request.Context(), includeInactive)
	if err != nil {
		h.logger.Errorw("failed to list plans", "error", err)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, plans)
}
