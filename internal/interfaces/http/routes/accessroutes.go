package routes

import (
	"github.com/gin-gonic/gin"

	accessHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/access"
)

// AccessRouteConfig holds dependencies for access evaluation routes.
type AccessRouteConfig struct {
	AccessHandler *accessHandler.Handler
}

// SetupAccessRoutes configures access evaluation routes. POS terminals
// call these on session start and cache the result briefly.
func SetupAccessRoutes(engine *gin.Engine, cfg *AccessRouteConfig) {
	access := engine.Group("/tenants/:tenant_id/access")
	{
		access.GET("", cfg.AccessHandler.Check)
		access.GET("/warnings", cfg.AccessHandler.Warnings)
		access.GET("/operation", cfg.AccessHandler.CheckOperation)
	}
}
