package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

// TenantIDHeader carries the acting tenant on gated routes. The wider
// platform's auth layer sets it after token validation.
const TenantIDHeader = "X-Tenant-ID"

// AccessGateMiddleware blocks requests whose tenant's subscription does not
// permit the route's operation kind. Denials carry the reason so POS
// clients can show the payment prompt instead of a bare 403.
type AccessGateMiddleware struct {
	accessService *usecases.AccessService
	logger        logger.Interface
}

func NewAccessGateMiddleware(accessService *usecases.AccessService, logger logger.Interface) *AccessGateMiddleware {
	return &AccessGateMiddleware{
		accessService: accessService,
		logger:        logger,
	}
}

// Require returns a middleware enforcing the given operation kind.
func (m *AccessGateMiddleware) Require(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantIDFromRequest(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusBadRequest, "tenant not identified")
			c.Abort()
			return
		}

		decision := m.accessService.IsOperationAllowed(c.Request.Context(), tenantID, operation)
		if !decision.Allowed {
			m.logger.Warnw("operation denied by subscription state",
				"tenant_id", tenantID,
				"operation", operation,
				"reason", decision.Reason,
			)
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"type":      "subscription_restricted",
					"message":   decision.Reason,
					"operation": operation,
				},
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

func tenantIDFromRequest(c *gin.Context) (uint, bool) {
	raw := c.GetHeader(TenantIDHeader)
	if raw == "" {
		raw = c.Param("tenant_id")
	}
	if raw == "" {
		return 0, false
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
