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

const graceDays = 7

func seedActive(t *testing.T, repo *memSubscriptionRepo, tenantID uint, periodStart, periodEnd time.Time) *billing.Subscription {
	t.Helper()
	sub, err := billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                 tenantID * 100,
		SID:                "sub_seed" + time.Now().Format("150405.000000000"),
		TenantID:           tenantID,
		PlanID:             1,
		PlanCode:           "growth",
		BillingCycle:       "monthly",
		Status:             "active",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		IsTrialUsed:        true,
		CurrentPrice:       4500_00,
		AutoRenew:          true,
		Version:            1,
		CreatedAt:          periodStart,
		UpdatedAt:          periodStart,
	})
	require.NoError(t, err)
	repo.put(sub)
	return sub
}

func TestEvaluateSubscriptions_MovesOverdueToPastDue(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodEnd)

	uc := NewEvaluateSubscriptionsUseCase(subRepo, eventRepo, notifier, clock, graceDays, logger.NewLogger())
	changed, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stored, err := subRepo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusPastDue, stored.Status())
	require.NotNil(t, stored.GracePeriodEndDate())
	assert.Equal(t, now.AddDate(0, 0, graceDays), *stored.GracePeriodEndDate())

	events := notifier.captured()
	require.Len(t, events, 1)
	assert.Equal(t, vo.StatusActive, events[0].FromStatus)
	assert.Equal(t, vo.StatusPastDue, events[0].ToStatus)
	assert.Equal(t, billing.ChangeReasonClock, events[0].Reason)
}

func TestEvaluateSubscriptions_PaymentBeatsClock(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodEnd)

	// A payment is sitting in the inbox when the clock tick runs.
	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event, err := billing.NewBillingEvent(42, billing.EventPaymentSucceeded, 4500_00, "KES", "MPESA-X1", paidAt, now)
	require.NoError(t, err)
	require.NoError(t, eventRepo.Create(context.Background(), event))

	evaluate := NewEvaluateSubscriptionsUseCase(subRepo, eventRepo, notifier, clock, graceDays, logger.NewLogger())
	changed, err := evaluate.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "tick must defer to the pending payment")

	stored, err := subRepo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, stored.Status())

	apply := NewApplyBillingEventsUseCase(subRepo, eventRepo, notifier, clock, logger.NewLogger())
	processed, err := apply.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored, err = subRepo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.Equal(t, paidAt.AddDate(0, 1, 0), stored.CurrentPeriodEnd())

	// Subsequent tick finds nothing due.
	changed, err = evaluate.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestApplyBillingEvents_AppliedInOccurrenceOrder(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodStart.AddDate(0, 1, 0))

	// Received out of order: the later payment arrives first.
	later := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, occurredAt := range []time.Time{later, earlier} {
		event, err := billing.NewBillingEvent(42, billing.EventPaymentSucceeded, 4500_00, "KES", "", occurredAt, now)
		require.NoError(t, err)
		require.NoError(t, eventRepo.Create(context.Background(), event))
	}

	apply := NewApplyBillingEventsUseCase(subRepo, eventRepo, notifier, clock, logger.NewLogger())
	processed, err := apply.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	stored, err := subRepo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	// Last applied payment is the later occurrence, so the period runs from it.
	assert.Equal(t, later.AddDate(0, 1, 0), stored.CurrentPeriodEnd())
}

func TestApplyBillingEvents_RetriesLockConflictOnce(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodStart.AddDate(0, 1, 0))
	subRepo.conflictCount = 1

	event, err := billing.NewBillingEvent(42, billing.EventPaymentSucceeded, 4500_00, "KES", "", now, now)
	require.NoError(t, err)
	require.NoError(t, eventRepo.Create(context.Background(), event))

	apply := NewApplyBillingEventsUseCase(subRepo, eventRepo, notifier, clock, logger.NewLogger())
	processed, err := apply.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.True(t, event.IsProcessed())
}

func TestApplyBillingEvents_FailureIsolation(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodStart.AddDate(0, 1, 0))

	// Tenant 99 has no subscription, so its event cannot be applied.
	orphan, err := billing.NewBillingEvent(99, billing.EventPaymentSucceeded, 100, "KES", "", now, now)
	require.NoError(t, err)
	require.NoError(t, eventRepo.Create(context.Background(), orphan))

	good, err := billing.NewBillingEvent(42, billing.EventPaymentSucceeded, 4500_00, "KES", "", now, now)
	require.NoError(t, err)
	require.NoError(t, eventRepo.Create(context.Background(), good))

	apply := NewApplyBillingEventsUseCase(subRepo, eventRepo, notifier, clock, logger.NewLogger())
	processed, err := apply.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, processed)
	assert.False(t, orphan.IsProcessed())
	require.NotNil(t, orphan.ProcessError())
	assert.True(t, good.IsProcessed())
}

func TestApplyBillingEvents_PaymentFailedLeavesStatus(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: now}

	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedActive(t, subRepo, 42, periodStart, periodStart.AddDate(0, 1, 0))

	event, err := billing.NewBillingEvent(42, billing.EventPaymentFailed, 4500_00, "KES", "", now, now)
	require.NoError(t, err)
	require.NoError(t, eventRepo.Create(context.Background(), event))

	apply := NewApplyBillingEventsUseCase(subRepo, eventRepo, notifier, clock, logger.NewLogger())
	processed, err := apply.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.True(t, event.IsProcessed())

	stored, err := subRepo.GetByTenantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.Empty(t, notifier.captured())
}

func TestEvaluateSubscriptions_TrialExpiry(t *testing.T) {
	subRepo := newMemSubscriptionRepo()
	eventRepo := newMemBillingEventRepo()
	notifier := &captureNotifier{}

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	trialEnd := start.AddDate(0, 0, 14)
	sub, err := billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                 7,
		SID:                "sub_trial01",
		TenantID:           7,
		PlanID:             1,
		PlanCode:           "growth",
		BillingCycle:       "monthly",
		Status:             "trial",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   trialEnd,
		TrialEndDate:       &trialEnd,
		IsTrialUsed:        true,
		AutoRenew:          true,
		Version:            1,
		CreatedAt:          start,
		UpdatedAt:          start,
	})
	require.NoError(t, err)
	subRepo.put(sub)

	clock := FixedClock{Instant: trialEnd.Add(time.Hour)}
	uc := NewEvaluateSubscriptionsUseCase(subRepo, eventRepo, notifier, clock, graceDays, logger.NewLogger())
	changed, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stored, err := subRepo.GetByTenantID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusExpired, stored.Status())
}
