package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// UsageService gates countable resource creation against plan limits and
// keeps the per-tenant counters current. CheckLimit is a pure read;
// EnforceLimit adds structured denials; the increment and decrement paths
// mutate counters atomically in storage so concurrent instances cannot lose
// updates, and decrements clamp at zero to tolerate duplicate or
// out-of-order calls.
type UsageService struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	logger           logger.Interface
}

func NewUsageService(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	logger logger.Interface,
) *UsageService {
	return &UsageService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		logger:           logger,
	}
}

// CheckLimit reports whether the tenant could add `increment` more of the
// resource. Never mutates state.
func (s *UsageService) CheckLimit(ctx context.Context, tenantID uint, resource vo.Resource, increment uint) (*dto.UsageCheckResult, error) {
	sub, plan, err := s.loadUsable(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	current, err := sub.UsageCount(resource)
	if err != nil {
		return nil, err
	}
	limit, err := plan.LimitFor(resource)
	if err != nil {
		return nil, err
	}

	remaining := uint(0)
	if limit > current {
		remaining = limit - current
	}

	return &dto.UsageCheckResult{
		TenantID:  tenantID,
		Resource:  resource.String(),
		Current:   current,
		Limit:     limit,
		Remaining: remaining,
		Allowed:   current+increment <= limit,
	}, nil
}

// EnforceLimit is CheckLimit with teeth: a denial comes back as a sentinel
// error the caller can translate into a structured refusal.
func (s *UsageService) EnforceLimit(ctx context.Context, tenantID uint, resource vo.Resource, increment uint) (*dto.UsageCheckResult, error) {
	result, err := s.CheckLimit(ctx, tenantID, resource, increment)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return result, billing.ErrLimitExceeded(resource.String(), result.Current, result.Limit)
	}
	return result, nil
}

// IncrementUsage bumps the counter after a resource was created.
func (s *UsageService) IncrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, count uint) error {
	if count == 0 {
		return nil
	}
	if !vo.ValidResources[resource] {
		return fmt.Errorf("invalid resource: %s", resource)
	}
	if err := s.subscriptionRepo.IncrementUsage(ctx, tenantID, resource, count); err != nil {
		return fmt.Errorf("failed to increment %s usage: %w", resource, err)
	}
	return nil
}

// DecrementUsage lowers the counter after a resource was removed. The
// stored value never goes below zero.
func (s *UsageService) DecrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, count uint) error {
	if count == 0 {
		return nil
	}
	if !vo.ValidResources[resource] {
		return fmt.Errorf("invalid resource: %s", resource)
	}
	if err := s.subscriptionRepo.DecrementUsage(ctx, tenantID, resource, count); err != nil {
		return fmt.Errorf("failed to decrement %s usage: %w", resource, err)
	}
	return nil
}

// SyncUsageCounts overwrites all counters with authoritative values. This
// is the repair path used by the reconciliation auditor and bulk imports.
func (s *UsageService) SyncUsageCounts(ctx context.Context, tenantID uint, shops, employees, products uint) error {
	if err := s.subscriptionRepo.SyncUsage(ctx, tenantID, shops, employees, products); err != nil {
		return fmt.Errorf("failed to sync usage counts: %w", err)
	}
	s.logger.Infow("usage counts synced",
		"tenant_id", tenantID,
		"shops", shops,
		"employees", employees,
		"products", products,
	)
	return nil
}

// GetUsageSummary reports all counters and limits for the tenant.
func (s *UsageService) GetUsageSummary(ctx context.Context, tenantID uint) (*dto.UsageSummary, error) {
	sub, plan, err := s.loadUsable(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &dto.UsageSummary{
		TenantID: tenantID,
		PlanCode: sub.PlanCode(),
	}
	for _, resource := range []vo.Resource{vo.ResourceShops, vo.ResourceEmployees, vo.ResourceProducts} {
		current, err := sub.UsageCount(resource)
		if err != nil {
			return nil, err
		}
		limit, err := plan.LimitFor(resource)
		if err != nil {
			return nil, err
		}
		remaining := uint(0)
		if limit > current {
			remaining = limit - current
		}
		summary.Items = append(summary.Items, dto.UsageCheckResult{
			TenantID:  tenantID,
			Resource:  resource.String(),
			Current:   current,
			Limit:     limit,
			Remaining: remaining,
			Allowed:   current < limit,
		})
	}
	return summary, nil
}

func (s *UsageService) loadUsable(ctx context.Context, tenantID uint) (*billing.Subscription, *billing.Plan, error) {
	sub, err := s.subscriptionRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, billing.ErrNoActiveSubscription
	}
	if !sub.IsUsable() {
		return nil, nil, billing.ErrNotUsable(sub.Status().String())
	}

	plan, err := s.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, billing.ErrPlanNotFound
	}
	return sub, plan, nil
}
