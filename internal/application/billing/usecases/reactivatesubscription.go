package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type ReactivateSubscriptionCommand struct {
	TenantID uint
	// PlanCode optionally moves the tenant to a different plan on revival.
	// Empty keeps the plan they had.
	PlanCode string
}

// ReactivateSubscriptionUseCase revives a cancelled or expired
// subscription. The landing state depends on trial eligibility and how
// much paid-up time is left; see Subscription.Reactivate.
type ReactivateSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	notifier         SubscriptionChangeNotifier
	clock            Clock
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		notifier:         notifier,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	now := uc.clock.Now()

	var (
		result       dto.SubscriptionDTO
		notification *billing.SubscriptionChangedEvent
	)

	err := withConcurrencyRetry(ctx, func(ctx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByTenantID(ctx, cmd.TenantID)
		if err != nil {
			return err
		}
		if sub == nil {
			return billing.ErrSubscriptionNotFound
		}

		planCode := cmd.PlanCode
		if planCode == "" {
			planCode = sub.PlanCode()
		}
		plan, err := uc.planRepo.GetByCode(ctx, planCode)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		if plan == nil {
			return billing.ErrPlanNotFound
		}

		fromStatus := sub.Status()
		if err := sub.Reactivate(now, plan); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}

		event := billing.NewSubscriptionChangedEvent(sub, fromStatus, billing.ChangeReasonReactivation, now)
		notification = &event
		result = dto.SubscriptionToDTO(sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("subscription reactivated",
		"tenant_id", cmd.TenantID,
		"subscription_sid", result.SID,
		"status", result.Status,
	)

	if err := uc.notifier.NotifySubscriptionChanged(ctx, *notification); err != nil {
		uc.logger.Warnw("failed to notify reactivation",
			"subscription_sid", result.SID,
			"error", err,
		)
	}

	return &result, nil
}
