package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

const testPaymentURL = "https://billing.dukapos.africa/pay"

func seedWithStatus(t *testing.T, repo *memSubscriptionRepo, tenantID uint, status string, periodStart, periodEnd time.Time, graceEnd *time.Time) {
	t.Helper()
	sub, err := billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                 tenantID,
		SID:                "sub_access01",
		TenantID:           tenantID,
		PlanID:             1,
		PlanCode:           "growth",
		BillingCycle:       "monthly",
		Status:             status,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		GracePeriodEndDate: graceEnd,
		IsTrialUsed:        true,
		AutoRenew:          true,
		Version:            1,
		CreatedAt:          periodStart,
		UpdatedAt:          periodStart,
	})
	require.NoError(t, err)
	repo.put(sub)
}

func TestCheckAccess_Levels(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	periodStart := now.AddDate(0, 0, -10)
	periodEnd := now.AddDate(0, 0, 20)
	graceEnd := now.AddDate(0, 0, 4)

	tests := []struct {
		status   string
		grace    *time.Time
		level    string
		canPay   bool
	}{
		{"active", nil, "full", true},
		{"trial", nil, "full", true},
		{"past_due", &graceEnd, "read_only", true},
		{"suspended", nil, "blocked", true},
		{"expired", nil, "blocked", false},
		{"cancelled", nil, "blocked", false},
		{"pending_payment", nil, "blocked", true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := newMemSubscriptionRepo()
			seedWithStatus(t, repo, 42, tt.status, periodStart, periodEnd, tt.grace)

			svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
			result := svc.CheckAccess(context.Background(), 42)

			assert.Equal(t, tt.level, result.Level)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.canPay, result.CanMakePayment)
			assert.False(t, result.Degraded)
			require.NotNil(t, result.Summary)
			assert.Equal(t, "growth", result.Summary.PlanCode)
		})
	}
}

func TestCheckAccess_DaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemSubscriptionRepo()
	seedWithStatus(t, repo, 42, "active", now.AddDate(0, 0, -10), now.AddDate(0, 0, 20), nil)

	svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
	result := svc.CheckAccess(context.Background(), 42)

	assert.Equal(t, 20, result.DaysRemaining)
}

func TestCheckAccess_PastDueCountsDownToSuspension(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	graceEnd := now.AddDate(0, 0, 4)
	repo := newMemSubscriptionRepo()
	seedWithStatus(t, repo, 42, "past_due", now.AddDate(0, 0, -40), now.AddDate(0, 0, -2), &graceEnd)

	svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
	result := svc.CheckAccess(context.Background(), 42)

	assert.Equal(t, "read_only", result.Level)
	assert.Equal(t, 4, result.DaysRemaining)
	assert.Contains(t, result.Message, "suspended")
}

func TestCheckAccess_NoSubscription(t *testing.T) {
	repo := newMemSubscriptionRepo()
	svc := NewAccessService(repo, FixedClock{Instant: time.Now().UTC()}, testPaymentURL, logger.NewLogger())

	result := svc.CheckAccess(context.Background(), 404)

	assert.Equal(t, "none", result.Level)
	assert.Nil(t, result.Summary)
}

func TestCheckAccess_FailsOpenOnInfraError(t *testing.T) {
	repo := newMemSubscriptionRepo()
	repo.getErr = errors.New("connection refused")

	svc := NewAccessService(repo, FixedClock{Instant: time.Now().UTC()}, testPaymentURL, logger.NewLogger())
	result := svc.CheckAccess(context.Background(), 42)

	assert.Equal(t, "full", result.Level)
	assert.True(t, result.Degraded)
}

func TestGetWarnings_Ladder(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysLeft int
		severity string
	}{
		{"seven days", 7, "info"},
		{"three days", 3, "warning"},
		{"one day", 1, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemSubscriptionRepo()
			seedWithStatus(t, repo, 42, "active", now.AddDate(0, -1, 0), now.AddDate(0, 0, tt.daysLeft), nil)

			svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
			warnings, err := svc.GetWarnings(context.Background(), 42)
			require.NoError(t, err)

			require.Len(t, warnings, 1)
			assert.Equal(t, tt.severity, warnings[0].Severity)
			assert.Equal(t, tt.daysLeft, warnings[0].DaysRemaining)
			assert.Equal(t, testPaymentURL, warnings[0].ActionURL)
		})
	}
}

func TestGetWarnings_NoneWhenFarFromBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := newMemSubscriptionRepo()
	seedWithStatus(t, repo, 42, "active", now, now.AddDate(0, 1, 0), nil)

	svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
	warnings, err := svc.GetWarnings(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestGetWarnings_CriticalStates(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	graceEnd := now.AddDate(0, 0, 2)

	tests := []struct {
		status string
		grace  *time.Time
	}{
		{"past_due", &graceEnd},
		{"suspended", nil},
		{"expired", nil},
		{"cancelled", nil},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := newMemSubscriptionRepo()
			seedWithStatus(t, repo, 42, tt.status, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), tt.grace)

			svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
			warnings, err := svc.GetWarnings(context.Background(), 42)
			require.NoError(t, err)

			require.Len(t, warnings, 1)
			assert.Equal(t, "critical", warnings[0].Severity)
		})
	}
}

func TestIsOperationAllowed(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	graceEnd := now.AddDate(0, 0, 4)

	tests := []struct {
		status    string
		grace     *time.Time
		operation string
		allowed   bool
	}{
		{"active", nil, "write", true},
		{"active", nil, "delete", true},
		{"trial", nil, "pos", true},
		{"past_due", &graceEnd, "read", true},
		{"past_due", &graceEnd, "reports", true},
		{"past_due", &graceEnd, "write", false},
		{"past_due", &graceEnd, "pos", false},
		{"suspended", nil, "read", false},
		{"cancelled", nil, "reports", false},
	}

	for _, tt := range tests {
		t.Run(tt.status+"_"+tt.operation, func(t *testing.T) {
			repo := newMemSubscriptionRepo()
			seedWithStatus(t, repo, 42, tt.status, now.AddDate(0, -1, 0), now.AddDate(0, 0, 10), tt.grace)

			svc := NewAccessService(repo, FixedClock{Instant: now}, testPaymentURL, logger.NewLogger())
			decision := svc.IsOperationAllowed(context.Background(), 42, tt.operation)

			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}
