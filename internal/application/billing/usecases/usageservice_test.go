package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

func usageFixture(t *testing.T) (*UsageService, *memSubscriptionRepo) {
	t.Helper()

	planRepo := newMemPlanRepo()
	plan, err := billing.NewPlan("growth", "Growth", "", 200_00, 4500_00, 48000_00, 3, 15, 5000, 0)
	require.NoError(t, err)
	require.NoError(t, planRepo.Create(context.Background(), plan))

	subRepo := newMemSubscriptionRepo()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, err := billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                 1,
		SID:                "sub_usage01",
		TenantID:           42,
		PlanID:             plan.ID(),
		PlanCode:           "growth",
		BillingCycle:       "monthly",
		Status:             "active",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
		IsTrialUsed:        true,
		AutoRenew:          true,
		ShopCount:          2,
		EmployeeCount:      14,
		ProductCount:       4999,
		Version:            1,
		CreatedAt:          start,
		UpdatedAt:          start,
	})
	require.NoError(t, err)
	subRepo.put(sub)

	return NewUsageService(subRepo, planRepo, logger.NewLogger()), subRepo
}

func TestCheckLimit(t *testing.T) {
	svc, _ := usageFixture(t)
	ctx := context.Background()

	result, err := svc.CheckLimit(ctx, 42, vo.ResourceShops, 1)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, uint(2), result.Current)
	assert.Equal(t, uint(3), result.Limit)
	assert.Equal(t, uint(1), result.Remaining)

	// Adding two would exceed the cap of three.
	result, err = svc.CheckLimit(ctx, 42, vo.ResourceShops, 2)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestCheckLimit_AtExactCap(t *testing.T) {
	svc, _ := usageFixture(t)

	result, err := svc.CheckLimit(context.Background(), 42, vo.ResourceEmployees, 1)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "14 + 1 = 15 is exactly at the limit")

	result, err = svc.CheckLimit(context.Background(), 42, vo.ResourceEmployees, 2)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestCheckLimit_NoSubscription(t *testing.T) {
	svc, _ := usageFixture(t)

	_, err := svc.CheckLimit(context.Background(), 404, vo.ResourceShops, 1)
	assert.ErrorIs(t, err, billing.ErrNoActiveSubscription)
}

func TestCheckLimit_SubscriptionNotUsable(t *testing.T) {
	svc, subRepo := usageFixture(t)
	ctx := context.Background()

	stored, err := subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, stored.Cancel(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), ""))
	subRepo.put(stored)

	_, err = svc.CheckLimit(ctx, 42, vo.ResourceShops, 1)
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotUsable)
}

func TestEnforceLimit(t *testing.T) {
	svc, _ := usageFixture(t)
	ctx := context.Background()

	result, err := svc.EnforceLimit(ctx, 42, vo.ResourceProducts, 1)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = svc.EnforceLimit(ctx, 42, vo.ResourceProducts, 2)
	assert.ErrorIs(t, err, billing.ErrUsageLimitExceeded)
	require.NotNil(t, result)
	assert.False(t, result.Allowed)
}

func TestIncrementAndDecrementUsage(t *testing.T) {
	svc, subRepo := usageFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.IncrementUsage(ctx, 42, vo.ResourceShops, 1))
	stored, err := subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(3), stored.ShopCount())

	require.NoError(t, svc.DecrementUsage(ctx, 42, vo.ResourceShops, 2))
	stored, err = subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.ShopCount())
}

func TestDecrementUsage_ClampsAtZero(t *testing.T) {
	svc, subRepo := usageFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.DecrementUsage(ctx, 42, vo.ResourceShops, 10))
	stored, err := subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored.ShopCount())

	// Duplicate decrement stays at zero.
	require.NoError(t, svc.DecrementUsage(ctx, 42, vo.ResourceShops, 1))
	stored, err = subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored.ShopCount())
}

func TestSyncUsageCounts(t *testing.T) {
	svc, subRepo := usageFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SyncUsageCounts(ctx, 42, 1, 5, 100))

	stored, err := subRepo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.ShopCount())
	assert.Equal(t, uint(5), stored.EmployeeCount())
	assert.Equal(t, uint(100), stored.ProductCount())
}

func TestGetUsageSummary(t *testing.T) {
	svc, _ := usageFixture(t)

	summary, err := svc.GetUsageSummary(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "growth", summary.PlanCode)
	require.Len(t, summary.Items, 3)
	assert.Equal(t, "shops", summary.Items[0].Resource)
	assert.Equal(t, uint(3), summary.Items[0].Limit)
}
