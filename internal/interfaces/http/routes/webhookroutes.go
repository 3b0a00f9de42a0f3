package routes

import (
	"github.com/gin-gonic/gin"

	billingeventHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/billingevent"
	"github.com/dukapos/dukapos/internal/interfaces/http/middleware"
)

// WebhookRouteConfig holds dependencies for payment provider webhook routes.
type WebhookRouteConfig struct {
	BillingEventHandler *billingeventHandler.Handler
	RateLimiter         *middleware.RateLimiter
}

// SetupWebhookRoutes configures the payment provider callback routes.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/webhooks/billing")
	if cfg.RateLimiter != nil {
		webhooks.Use(cfg.RateLimiter.Limit())
	}
	{
		webhooks.POST("/events", cfg.BillingEventHandler.Receive)
		webhooks.POST("/events/drain", cfg.BillingEventHandler.Drain)
	}
}
