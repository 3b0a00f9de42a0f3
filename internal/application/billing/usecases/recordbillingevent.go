package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// RecordBillingEventCommand carries a payment outcome reported by an
// external billing provider.
type RecordBillingEventCommand struct {
	TenantID   uint
	EventType  string
	Amount     uint64
	Currency   string
	Reference  string
	OccurredAt time.Time
}

// RecordBillingEventUseCase persists a billing event into the inbox. The
// event is not applied here; the lifecycle engine applies pending events in
// occurredAt order on its next pass, which keeps ingestion cheap and makes
// out-of-order delivery from the provider harmless.
type RecordBillingEventUseCase struct {
	eventRepo billing.BillingEventRepository
	tenants   billing.TenantDirectory
	clock     Clock
	logger    logger.Interface
}

func NewRecordBillingEventUseCase(
	eventRepo billing.BillingEventRepository,
	tenants billing.TenantDirectory,
	clock Clock,
	logger logger.Interface,
) *RecordBillingEventUseCase {
	return &RecordBillingEventUseCase{
		eventRepo: eventRepo,
		tenants:   tenants,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *RecordBillingEventUseCase) Execute(ctx context.Context, cmd RecordBillingEventCommand) (*dto.BillingEventDTO, error) {
	exists, err := uc.tenants.Exists(ctx, cmd.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, billing.ErrTenantNotFound
	}

	event, err := billing.NewBillingEvent(
		cmd.TenantID,
		billing.BillingEventType(cmd.EventType),
		cmd.Amount,
		cmd.Currency,
		cmd.Reference,
		cmd.OccurredAt,
		uc.clock.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := uc.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to store billing event: %w", err)
	}

	uc.logger.Infow("billing event recorded",
		"event_eid", event.EID(),
		"tenant_id", cmd.TenantID,
		"event_type", cmd.EventType,
		"occurred_at", cmd.OccurredAt,
	)

	result := dto.BillingEventToDTO(event)
	return &result, nil
}
