package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	usageHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/usage"
	"github.com/dukapos/dukapos/internal/interfaces/http/middleware"
)

// UsageRouteConfig holds dependencies for usage guard routes.
type UsageRouteConfig struct {
	UsageHandler *usageHandler.Handler
	AccessGate   *middleware.AccessGateMiddleware
}

// SetupUsageRoutes configures usage guard routes. Counter adjustments are
// write operations and pass through the access gate; checks and the
// summary stay readable even for read_only tenants.
func SetupUsageRoutes(engine *gin.Engine, cfg *UsageRouteConfig) {
	usage := engine.Group("/tenants/:tenant_id/usage")
	{
		usage.GET("/check", cfg.UsageHandler.CheckLimit)
		usage.GET("/summary", cfg.UsageHandler.Summary)
		usage.POST("/enforce", cfg.UsageHandler.Enforce)

		writes := usage.Group("")
		writes.Use(cfg.AccessGate.Require(dto.OperationWrite))
		{
			writes.POST("/increment", cfg.UsageHandler.Increment)
			writes.POST("/decrement", cfg.UsageHandler.Decrement)
			writes.POST("/sync", cfg.UsageHandler.Sync)
		}
	}
}
