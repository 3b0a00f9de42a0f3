package routes

import (
	"github.com/gin-gonic/gin"

	subscriptionHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/subscription"
)

// SubscriptionRouteConfig holds dependencies for subscription lifecycle routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *subscriptionHandler.Handler
}

// SetupSubscriptionRoutes configures subscription lifecycle routes.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	engine.POST("/subscriptions", cfg.SubscriptionHandler.Create)

	tenant := engine.Group("/tenants/:tenant_id/subscription")
	{
		tenant.GET("", cfg.SubscriptionHandler.Get)
		tenant.POST("/cancel", cfg.SubscriptionHandler.Cancel)
		tenant.POST("/reactivate", cfg.SubscriptionHandler.Reactivate)
		tenant.POST("/upgrade", cfg.SubscriptionHandler.RequestUpgrade)
	}
}
