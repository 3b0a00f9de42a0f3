// Package access provides HTTP handlers for subscription access checks.
// POS terminals and the web dashboard call these on session start and
// before privileged actions.
package access

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

type Handler struct {
	accessService *usecases.AccessService
	logger        logger.Interface
}

func NewHandler(accessService *usecases.AccessService, logger logger.Interface) *Handler {
	return &Handler{
		accessService: accessService,
		logger:        logger,
	}
}

func parseTenantID(c *gin.Context) (uint, bool) {
	tenantID, err := strconv.ParseUint(c.Param("tenant_id"), 10, 64)
	if err != nil || tenantID == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid tenant ID")
		return 0, false
	}
	return uint(tenantID), true
}

// Check returns the tenant's current access level. Never errors: under
// infrastructure failure the result is full access flagged as degraded.
func (h *Handler) Check(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	result := h.accessService.CheckAccess(c.Request.Context(), tenantID)
	utils.OKResponse(c, result)
}

// Warnings returns the renewal warnings to surface in the tenant's UI.
func (h *Handler) Warnings(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	warnings, err := h.accessService.GetWarnings(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Errorw("failed to get warnings", "error", err, "tenant_id", tenantID)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, warnings)
}

// CheckOperation answers whether one operation kind is allowed right now.
func (h *Handler) CheckOperation(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	operation := c.Query("operation")
	if operation == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "operation is required")
		return
	}

	decision := h.accessService.IsOperationAllowed(c.Request.Context(), tenantID, operation)
	utils.OKResponse(c, decision)
}
