package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/infrastructure/persistence/models"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(
		&models.SubscriptionModel{},
		&models.PlanModel{},
		&models.BillingEventModel{},
		&models.TenantModel{},
	))
	return database
}

func seedPlan(t *testing.T, database *gorm.DB) *billing.Plan {
	t.Helper()
	repo := NewPlanRepository(database, logger.NewLogger())
	plan, err := billing.NewPlan("growth", "Growth", "", 200_00, 4500_00, 48000_00, 3, 15, 5000, 14)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), plan))
	return plan
}

func TestSubscriptionRepository_CreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	repo := NewSubscriptionRepository(database, logger.NewLogger())
	plan := seedPlan(t, database)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sub, err := billing.NewTrialSubscription(42, plan, vo.BillingCycleMonthly, 0, now)
	require.NoError(t, err)
	sub.SetMetadata("source", "signup_form")

	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NotZero(t, sub.ID())

	loaded, err := repo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sub.SID(), loaded.SID())
	assert.Equal(t, vo.StatusTrial, loaded.Status())
	assert.Equal(t, "growth", loaded.PlanCode())
	assert.True(t, loaded.IsTrialUsed())
	assert.Equal(t, "signup_form", loaded.Metadata()["source"])

	bySID, err := repo.GetBySID(context.Background(), sub.SID())
	require.NoError(t, err)
	require.NotNil(t, bySID)
	assert.Equal(t, loaded.ID(), bySID.ID())
}

func TestSubscriptionRepository_GetMissingReturnsNil(t *testing.T) {
	database := setupTestDB(t)
	repo := NewSubscriptionRepository(database, logger.NewLogger())

	loaded, err := repo.GetByTenantID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSubscriptionRepository_OptimisticLock(t *testing.T) {
	database := setupTestDB(t)
	repo := NewSubscriptionRepository(database, logger.NewLogger())
	plan := seedPlan(t, database)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sub, err := billing.NewTrialSubscription(42, plan, vo.BillingCycleMonthly, 0, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))

	// Two copies of the same row race to update it.
	first, err := repo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	second, err := repo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)

	require.NoError(t, first.Cancel(now.Add(time.Hour), "first writer"))
	require.NoError(t, repo.Update(context.Background(), first))

	require.NoError(t, second.Cancel(now.Add(2*time.Hour), "second writer"))
	err = repo.Update(context.Background(), second)
	assert.ErrorIs(t, err, billing.ErrConcurrentModification)
}

func TestSubscriptionRepository_UsageCounters(t *testing.T) {
	database := setupTestDB(t)
	repo := NewSubscriptionRepository(database, logger.NewLogger())
	plan := seedPlan(t, database)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sub, err := billing.NewTrialSubscription(42, plan, vo.BillingCycleMonthly, 0, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))

	ctx := context.Background()
	require.NoError(t, repo.IncrementUsage(ctx, 42, vo.ResourceProducts, 3))
	require.NoError(t, repo.IncrementUsage(ctx, 42, vo.ResourceProducts, 2))

	loaded, err := repo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(5), loaded.ProductCount())

	require.NoError(t, repo.DecrementUsage(ctx, 42, vo.ResourceProducts, 2))
	loaded, err = repo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(3), loaded.ProductCount())

	// Decrement past zero clamps.
	require.NoError(t, repo.DecrementUsage(ctx, 42, vo.ResourceProducts, 10))
	loaded, err = repo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(0), loaded.ProductCount())

	require.NoError(t, repo.SyncUsage(ctx, 42, 1, 4, 250))
	loaded, err = repo.GetByTenantID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(1), loaded.ShopCount())
	assert.Equal(t, uint(4), loaded.EmployeeCount())
	assert.Equal(t, uint(250), loaded.ProductCount())
}

func TestSubscriptionRepository_FindDueForEvaluation(t *testing.T) {
	database := setupTestDB(t)
	repo := NewSubscriptionRepository(database, logger.NewLogger())
	plan := seedPlan(t, database)

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Tenant 1: active, period already over. Due.
	overdue, err := billing.NewPendingSubscription(1, plan, vo.BillingCycleMonthly, 0, now.AddDate(0, -2, 0))
	require.NoError(t, err)
	require.NoError(t, overdue.RecordPayment(now.AddDate(0, -2, 0), 4500_00))
	require.NoError(t, repo.Create(context.Background(), overdue))

	// Tenant 2: active, period still running. Not due.
	current, err := billing.NewPendingSubscription(2, plan, vo.BillingCycleMonthly, 0, now)
	require.NoError(t, err)
	require.NoError(t, current.RecordPayment(now, 4500_00))
	require.NoError(t, repo.Create(context.Background(), current))

	due, err := repo.FindDueForEvaluation(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, uint(1), due[0].TenantID())
}

func TestBillingEventRepository_UnprocessedOrdering(t *testing.T) {
	database := setupTestDB(t)
	repo := NewBillingEventRepository(database, logger.NewLogger())

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	later, err := billing.NewBillingEvent(1, billing.EventPaymentSucceeded, 100, "KES", "", now.Add(2*time.Hour), now)
	require.NoError(t, err)
	earlier, err := billing.NewBillingEvent(1, billing.EventPaymentSucceeded, 100, "KES", "", now.Add(time.Hour), now)
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), later))
	require.NoError(t, repo.Create(context.Background(), earlier))

	pending, err := repo.FindUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, earlier.EID(), pending[0].EID())
	assert.Equal(t, later.EID(), pending[1].EID())

	// Processing removes an event from the pending set.
	require.NoError(t, pending[0].MarkProcessed(now.Add(3*time.Hour)))
	require.NoError(t, repo.Update(context.Background(), pending[0]))

	pending, err = repo.FindUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, later.EID(), pending[0].EID())
}

func TestPlanRepository_Lifecycle(t *testing.T) {
	database := setupTestDB(t)
	repo := NewPlanRepository(database, logger.NewLogger())
	plan := seedPlan(t, database)

	loaded, err := repo.GetByCode(context.Background(), "growth")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, plan.ID(), loaded.ID())

	loaded.Deactivate()
	require.NoError(t, repo.Update(context.Background(), loaded))

	active, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
