package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type RequestPlanUpgradeCommand struct {
	TenantID uint
	PlanCode string
}

// RequestPlanUpgradeUseCase records a tenant's intent to move to a
// different plan. The change takes effect at the next successful payment;
// an unexercised request lapses after the configured TTL so stale intents
// never surprise a tenant months later.
type RequestPlanUpgradeUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	clock            Clock
	upgradeTTL       time.Duration
	logger           logger.Interface
}

func NewRequestPlanUpgradeUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	clock Clock,
	upgradeTTL time.Duration,
	logger logger.Interface,
) *RequestPlanUpgradeUseCase {
	return &RequestPlanUpgradeUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		clock:            clock,
		upgradeTTL:       upgradeTTL,
		logger:           logger,
	}
}

func (uc *RequestPlanUpgradeUseCase) Execute(ctx context.Context, cmd RequestPlanUpgradeCommand) (*dto.SubscriptionDTO, error) {
	plan, err := uc.planRepo.GetByCode(ctx, cmd.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return nil, billing.ErrPlanNotFound
	}

	now := uc.clock.Now()
	var result dto.SubscriptionDTO

	err = withConcurrencyRetry(ctx, func(ctx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByTenantID(ctx, cmd.TenantID)
		if err != nil {
			return err
		}
		if sub == nil {
			return billing.ErrSubscriptionNotFound
		}

		if err := sub.RequestUpgrade(now, plan, now.Add(uc.upgradeTTL)); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}
		result = dto.SubscriptionToDTO(sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("plan upgrade requested",
		"tenant_id", cmd.TenantID,
		"subscription_sid", result.SID,
		"target_plan", cmd.PlanCode,
	)

	return &result, nil
}
