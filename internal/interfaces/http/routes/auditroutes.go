package routes

import (
	"github.com/gin-gonic/gin"

	auditHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/audit"
)

// AuditRouteConfig holds dependencies for reconciliation audit routes.
type AuditRouteConfig struct {
	AuditHandler *auditHandler.Handler
}

// SetupAuditRoutes configures the reconciliation audit routes.
func SetupAuditRoutes(engine *gin.Engine, cfg *AuditRouteConfig) {
	engine.POST("/admin/audit/run", cfg.AuditHandler.Run)
}
