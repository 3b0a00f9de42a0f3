// Package common holds helpers shared by the billing HTTP handlers.
package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

// BillingErrorResponse maps domain sentinel errors onto HTTP responses.
// Anything unrecognized falls through to the generic app error handler.
func BillingErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrSubscriptionNotFound),
		errors.Is(err, billing.ErrNoActiveSubscription),
		errors.Is(err, billing.ErrPlanNotFound),
		errors.Is(err, billing.ErrTenantNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())

	case errors.Is(err, billing.ErrPlanCodeExists),
		errors.Is(err, billing.ErrConcurrentModification),
		errors.Is(err, billing.ErrTrialAlreadyUsed):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())

	case errors.Is(err, billing.ErrUsageLimitExceeded),
		errors.Is(err, billing.ErrSubscriptionNotUsable):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())

	case errors.Is(err, billing.ErrInvalidStatusTransition),
		errors.Is(err, billing.ErrInvalidBillingCycle),
		errors.Is(err, billing.ErrPlanInactive):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())

	default:
		utils.AppErrorResponse(c, err)
	}
}
