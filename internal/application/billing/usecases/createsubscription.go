package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// CreateSubscriptionCommand carries the inputs for signing a tenant up.
type CreateSubscriptionCommand struct {
	TenantID     uint
	PlanCode     string
	BillingCycle string
	NumberOfDays int
}

// CreateSubscriptionUseCase signs a tenant up on a plan. A tenant holds at
// most one subscription; a fresh signup starts in trial when the plan grants
// one, otherwise it waits in pending_payment for the first payment.
type CreateSubscriptionUseCase struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	tenants          billing.TenantDirectory
	notifier         SubscriptionChangeNotifier
	clock            Clock
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	tenants billing.TenantDirectory,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		tenants:          tenants,
		notifier:         notifier,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	exists, err := uc.tenants.Exists(ctx, cmd.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return nil, billing.ErrTenantNotFound
	}

	existing, err := uc.subscriptionRepo.GetByTenantID(ctx, cmd.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("tenant %d already has subscription %s", cmd.TenantID, existing.SID())
	}

	plan, err := uc.planRepo.GetByCode(ctx, cmd.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if plan == nil {
		return nil, billing.ErrPlanNotFound
	}

	cycle, err := vo.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()

	var sub *billing.Subscription
	if plan.GrantsTrial() {
		sub, err = billing.NewTrialSubscription(cmd.TenantID, plan, cycle, cmd.NumberOfDays, now)
	} else {
		sub, err = billing.NewPendingSubscription(cmd.TenantID, plan, cycle, cmd.NumberOfDays, now)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	uc.logger.Infow("subscription created",
		"tenant_id", cmd.TenantID,
		"subscription_sid", sub.SID(),
		"plan_code", plan.Code(),
		"status", sub.Status().String(),
	)

	event := billing.NewSubscriptionChangedEvent(sub, sub.Status(), billing.ChangeReasonSignup, now)
	event.FromStatus = ""
	if err := uc.notifier.NotifySubscriptionChanged(ctx, event); err != nil {
		uc.logger.Warnw("failed to notify subscription creation",
			"subscription_sid", sub.SID(),
			"error", err,
		)
	}

	result := dto.SubscriptionToDTO(sub)
	return &result, nil
}
