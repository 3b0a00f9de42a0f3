// Package billingevent provides the webhook handler for payment provider
// callbacks. Events land in the inbox and are applied asynchronously.
package billingevent

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/interfaces/http/handlers/common"
	"github.com/dukapos/dukapos/internal/shared/logger"
	"github.com/dukapos/dukapos/internal/shared/utils"
)

type Handler struct {
	recordUseCase *usecases.RecordBillingEventUseCase
	applyUseCase  *usecases.ApplyBillingEventsUseCase
	logger        logger.Interface
}

func NewHandler(
	recordUC *usecases.RecordBillingEventUseCase,
	applyUC *usecases.ApplyBillingEventsUseCase,
	logger logger.Interface,
) *Handler {
	return &Handler{
		recordUseCase: recordUC,
		applyUseCase:  applyUC,
		logger:        logger,
	}
}

// WebhookRequest is the payment provider's callback payload. Amount is in
// minor currency units. OccurredAt is when the provider settled the
// payment, which may be well before delivery.
type WebhookRequest struct {
	TenantID   uint      `json:"tenant_id" binding:"required"`
	EventType  string    `json:"event_type" binding:"required,oneof=payment_succeeded payment_failed"`
	Amount     uint64    `json:"amount"`
	Currency   string    `json:"currency"`
	Reference  string    `json:"reference"`
	OccurredAt time.Time `json:"occurred_at" binding:"required"`
}

// Receive ingests a provider event into the inbox. Returns 202: the event
// is applied by the drain job, not inline.
func (h *Handler) Receive(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid webhook payload", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	cmd := usecases.RecordBillingEventCommand{
		TenantID:   req.TenantID,
		EventType:  req.EventType,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Reference:  req.Reference,
		OccurredAt: req.OccurredAt,
	}

	result, err := h.recordUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to record billing event",
			"error", err,
			"tenant_id", req.TenantID,
			"reference", req.Reference,
		)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Event accepted", result)
}

// Drain applies pending events immediately instead of waiting for the
// scheduled job. Used by operators after a provider outage.
func (h *Handler) Drain(c *gin.Context) {
	applied, err := h.applyUseCase.Execute(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to drain billing events", "error", err)
		common.BillingErrorResponse(c, err)
		return
	}

	utils.OKResponse(c, gin.H{"applied": applied})
}
