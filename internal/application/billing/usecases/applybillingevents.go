package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// DefaultEventBatchSize bounds how many inbox events one engine pass applies.
const DefaultEventBatchSize = 200

// ApplyBillingEventsUseCase drains the billing event inbox. Events are
// applied in the order the provider says they occurred, and each payment is
// applied to the subscription before any clock-driven evaluation happens,
// so a payment that arrived late still rescues a tenant from past_due. Each
// event is marked processed exactly once; failures leave the event pending
// for the next pass.
type ApplyBillingEventsUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	eventRepo        billing.BillingEventRepository
	notifier         SubscriptionChangeNotifier
	clock            Clock
	batchSize        int
	logger           logger.Interface
}

func NewApplyBillingEventsUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	eventRepo billing.BillingEventRepository,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	logger logger.Interface,
) *ApplyBillingEventsUseCase {
	return &ApplyBillingEventsUseCase{
		subscriptionRepo: subscriptionRepo,
		eventRepo:        eventRepo,
		notifier:         notifier,
		clock:            clock,
		batchSize:        DefaultEventBatchSize,
		logger:           logger,
	}
}

// Execute applies pending billing events and returns how many were
// processed successfully.
func (uc *ApplyBillingEventsUseCase) Execute(ctx context.Context) (int, error) {
	events, err := uc.eventRepo.FindUnprocessed(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending billing events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	uc.logger.Infow("applying pending billing events", "count", len(events))

	processed := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := uc.applyOne(ctx, event); err != nil {
			uc.logger.Warnw("failed to apply billing event",
				"event_eid", event.EID(),
				"tenant_id", event.TenantID(),
				"event_type", string(event.EventType()),
				"error", err,
			)
			event.MarkFailed(uc.clock.Now(), err)
			if updateErr := uc.eventRepo.Update(ctx, event); updateErr != nil {
				uc.logger.Errorw("failed to record billing event failure",
					"event_eid", event.EID(),
					"error", updateErr,
				)
			}
			continue
		}
		processed++
	}

	return processed, nil
}

func (uc *ApplyBillingEventsUseCase) applyOne(ctx context.Context, event *billing.BillingEvent) error {
	var notification *billing.SubscriptionChangedEvent

	err := withConcurrencyRetry(ctx, func(ctx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByTenantID(ctx, event.TenantID())
		if err != nil {
			return fmt.Errorf("failed to load subscription: %w", err)
		}
		if sub == nil {
			return billing.ErrSubscriptionNotFound
		}

		fromStatus := sub.Status()

		switch event.EventType() {
		case billing.EventPaymentSucceeded:
			// The payment takes effect at the instant the provider says it
			// happened, not at processing time.
			if err := sub.RecordPayment(event.OccurredAt(), event.Amount()); err != nil {
				return err
			}
		case billing.EventPaymentFailed:
			uc.logger.Infow("payment failed for tenant",
				"tenant_id", event.TenantID(),
				"subscription_sid", sub.SID(),
				"reference", event.Reference(),
			)
		default:
			return fmt.Errorf("unhandled billing event type: %s", event.EventType())
		}

		if sub.Status() != fromStatus {
			if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
				return err
			}
			changed := billing.NewSubscriptionChangedEvent(sub, fromStatus, billing.ChangeReasonPayment, uc.clock.Now())
			notification = &changed
		} else if sub.Status() == fromStatus && event.EventType() == billing.EventPaymentSucceeded {
			// Renewal payment on an already-active subscription still moved
			// the period forward.
			if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := event.MarkProcessed(uc.clock.Now()); err != nil {
		return err
	}
	if err := uc.eventRepo.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to mark billing event processed: %w", err)
	}

	if notification != nil {
		if err := uc.notifier.NotifySubscriptionChanged(ctx, *notification); err != nil {
			uc.logger.Warnw("failed to notify subscription change",
				"event_eid", event.EID(),
				"error", err,
			)
		}
	}

	uc.logger.Debugw("billing event applied",
		"event_eid", event.EID(),
		"tenant_id", event.TenantID(),
		"event_type", string(event.EventType()),
	)
	return nil
}
