package routes

import (
	"github.com/gin-gonic/gin"

	planHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/plan"
)

// PlanRouteConfig holds dependencies for plan catalog routes.
type PlanRouteConfig struct {
	PlanHandler *planHandler.Handler
}

// SetupPlanRoutes configures plan catalog routes.
func SetupPlanRoutes(engine *gin.Engine, cfg *PlanRouteConfig) {
	plans := engine.Group("/plans")
	{
		plans.GET("", cfg.PlanHandler.List)
		plans.POST("", cfg.PlanHandler.Create)
		plans.PATCH("/:code", cfg.PlanHandler.Update)
	}
}
