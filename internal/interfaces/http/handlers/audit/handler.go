// Package audit provides HTTP handlers for triggering reconciliation runs.
package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

type Handler struct {
	auditService *usecases.AuditService
	logger       logger.Interface
}

func NewHandler(auditService *usecases.AuditService, logger logger.Interface) *Handler {
	return &Handler{
		auditService: auditService,
		logger:       logger,
	}
}

// Run executes the full reconciliation audit. Pass dry_run=true to report
// issues without repairing them.
func (h *Handler) Run(c *gin.Context) {
	dryRun := c.Query("dry_run") == "true"

	report, err := h.auditService.RunFullAudit(c.Request.Context(), dryRun)
	if err != nil {
		h.logger.Errorw("reconciliation audit failed", "error", err, "dry_run", dryRun)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, report)
}
