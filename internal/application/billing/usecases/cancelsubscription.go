package usecases

import (
	"context"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	TenantID uint
	Reason   string
}

// CancelSubscriptionUseCase cancels a tenant's subscription immediately.
type CancelSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	notifier         SubscriptionChangeNotifier
	clock            Clock
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*dto.SubscriptionDTO, error) {
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

		fromStatus := sub.Status()
		if err := sub.Cancel(now, cmd.Reason); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}

		event := billing.NewSubscriptionChangedEvent(sub, fromStatus, billing.ChangeReasonCancellation, now)
		notification = &event
		result = dto.SubscriptionToDTO(sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("subscription cancelled",
		"tenant_id", cmd.TenantID,
		"subscription_sid", result.SID,
		"reason", cmd.Reason,
	)

	if err := uc.notifier.NotifySubscriptionChanged(ctx, *notification); err != nil {
		uc.logger.Warnw("failed to notify cancellation",
			"subscription_sid", result.SID,
			"error", err,
		)
	}

	return &result, nil
}
