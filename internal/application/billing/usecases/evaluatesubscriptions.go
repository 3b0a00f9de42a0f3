package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// EvaluateSubscriptionsUseCase is the clock-driven half of the lifecycle
// engine. It advances every overdue subscription to the state the current
// time implies: trial to expired, active to past_due or expired, past_due
// to suspended. A tenant with a pending payment event in the inbox is
// skipped for the pass; the payment is applied first and usually makes the
// evaluation moot.
type EvaluateSubscriptionsUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	eventRepo        billing.BillingEventRepository
	notifier         SubscriptionChangeNotifier
	clock            Clock
	gracePeriodDays  int
	logger           logger.Interface
}

func NewEvaluateSubscriptionsUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	eventRepo billing.BillingEventRepository,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	gracePeriodDays int,
	logger logger.Interface,
) *EvaluateSubscriptionsUseCase {
	return &EvaluateSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		eventRepo:        eventRepo,
		notifier:         notifier,
		clock:            clock,
		gracePeriodDays:  gracePeriodDays,
		logger:           logger,
	}
}

// Execute runs one evaluation pass and returns the number of subscriptions
// that changed state.
func (uc *EvaluateSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()

	due, err := uc.subscriptionRepo.FindDueForEvaluation(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	uc.logger.Infow("evaluating due subscriptions", "count", len(due), "as_of", now)

	changedCount := 0
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return changedCount, err
		}

		pending, err := uc.eventRepo.FindUnprocessedByTenant(ctx, candidate.TenantID())
		if err != nil {
			uc.logger.Errorw("failed to check pending events",
				"tenant_id", candidate.TenantID(),
				"error", err,
			)
			continue
		}
		if hasPendingPayment(pending) {
			uc.logger.Debugw("skipping evaluation, payment pending",
				"tenant_id", candidate.TenantID(),
				"subscription_sid", candidate.SID(),
			)
			continue
		}

		changed, err := uc.evaluateOne(ctx, candidate.TenantID(), now)
		if err != nil {
			uc.logger.Errorw("failed to evaluate subscription",
				"tenant_id", candidate.TenantID(),
				"subscription_sid", candidate.SID(),
				"error", err,
			)
			continue
		}
		if changed {
			changedCount++
		}
	}

	return changedCount, nil
}

func hasPendingPayment(events []*billing.BillingEvent) bool {
	for _, event := range events {
		if event.EventType() == billing.EventPaymentSucceeded {
			return true
		}
	}
	return false
}

func (uc *EvaluateSubscriptionsUseCase) evaluateOne(ctx context.Context, tenantID uint, now time.Time) (bool, error) {
	var (
		changed      bool
		notification *billing.SubscriptionChangedEvent
	)

	err := withConcurrencyRetry(ctx, func(ctx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByTenantID(ctx, tenantID)
		if err != nil {
			return err
		}
		if sub == nil {
			return billing.ErrSubscriptionNotFound
		}

		fromStatus := sub.Status()
		changed, err = sub.EvaluateAt(now, uc.gracePeriodDays)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}

		if sub.Status() != fromStatus {
			event := billing.NewSubscriptionChangedEvent(sub, fromStatus, billing.ChangeReasonClock, now)
			notification = &event
			uc.logger.Infow("subscription transitioned",
				"tenant_id", tenantID,
				"subscription_sid", sub.SID(),
				"from_status", fromStatus.String(),
				"to_status", sub.Status().String(),
			)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if notification != nil {
		if err := uc.notifier.NotifySubscriptionChanged(ctx, *notification); err != nil {
			uc.logger.Warnw("failed to notify subscription change",
				"tenant_id", tenantID,
				"error", err,
			)
		}
	}
	return changed, nil
}
