package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

type auditFixture struct {
	svc       *AuditService
	subRepo   *memSubscriptionRepo
	planRepo  *memPlanRepo
	tenants   *memTenantDirectory
	notifier  *captureNotifier
	now       time.Time
}

func newAuditFixture(t *testing.T, tenantIDs ...uint) *auditFixture {
	t.Helper()

	planRepo := newMemPlanRepo()
	plan, err := billing.NewPlan("starter", "Starter", "", 100_00, 2000_00, 20000_00, 1, 3, 500, 14)
	require.NoError(t, err)
	require.NoError(t, planRepo.Create(context.Background(), plan))

	subRepo := newMemSubscriptionRepo()
	tenants := &memTenantDirectory{ids: tenantIDs}
	notifier := &captureNotifier{}
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

	svc := NewAuditService(subRepo, planRepo, tenants, notifier, FixedClock{Instant: now},
		graceDays, "starter", time.Second, logger.NewLogger())

	return &auditFixture{svc: svc, subRepo: subRepo, planRepo: planRepo, tenants: tenants, notifier: notifier, now: now}
}

func (f *auditFixture) seed(t *testing.T, params billing.ReconstructSubscriptionParams) {
	t.Helper()
	sub, err := billing.ReconstructSubscription(params)
	require.NoError(t, err)
	f.subRepo.put(sub)
}

func TestAudit_StaleActive(t *testing.T) {
	f := newAuditFixture(t, 42)
	periodStart := f.now.AddDate(0, -2, 0)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit01", TenantID: 42, PlanID: 1, PlanCode: "starter",
		BillingCycle: "monthly", Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: f.now.AddDate(0, 0, -2),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	// Dry run reports without mutating.
	result := f.svc.CheckStaleActive(context.Background(), true)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 0, result.Fixed)
	stored, _ := f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, vo.StatusActive, stored.Status())

	// Live run fixes: two days overdue is within the grace window.
	result = f.svc.CheckStaleActive(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)
	stored, _ = f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, vo.StatusPastDue, stored.Status())

	// Second live run fixes nothing.
	result = f.svc.CheckStaleActive(context.Background(), false)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 0, result.Fixed)
}

func TestAudit_StaleActiveBeyondGraceSuspends(t *testing.T) {
	f := newAuditFixture(t, 42)
	periodStart := f.now.AddDate(0, -3, 0)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit02", TenantID: 42, PlanID: 1, PlanCode: "starter",
		BillingCycle: "monthly", Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: f.now.AddDate(0, 0, -10),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	result := f.svc.CheckStaleActive(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	stored, _ := f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, vo.StatusSuspended, stored.Status())
}

func TestAudit_StaleTrial(t *testing.T) {
	f := newAuditFixture(t, 7)
	start := f.now.AddDate(0, 0, -30)
	trialEnd := start.AddDate(0, 0, 14)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit03", TenantID: 7, PlanID: 1, PlanCode: "starter",
		BillingCycle: "monthly", Status: "trial",
		CurrentPeriodStart: start, CurrentPeriodEnd: trialEnd, TrialEndDate: &trialEnd,
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: start, UpdatedAt: start,
	})

	result := f.svc.CheckStaleTrials(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	stored, _ := f.subRepo.GetByTenantID(context.Background(), 7)
	assert.Equal(t, vo.StatusExpired, stored.Status())
}

func TestAudit_StaleTrialWithoutTrialEndDate(t *testing.T) {
	f := newAuditFixture(t, 7)
	start := f.now.AddDate(0, 0, -30)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit09", TenantID: 7, PlanID: 1, PlanCode: "starter",
		BillingCycle: "monthly", Status: "trial",
		CurrentPeriodStart: start, CurrentPeriodEnd: f.now.AddDate(0, 0, -16),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: start, UpdatedAt: start,
	})

	// The trial end date was lost but the period has elapsed; the fix must
	// still expire the row.
	result := f.svc.CheckStaleTrials(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	stored, _ := f.subRepo.GetByTenantID(context.Background(), 7)
	assert.Equal(t, vo.StatusExpired, stored.Status())

	// A second live run has nothing left to report or fix.
	result = f.svc.CheckStaleTrials(context.Background(), false)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 0, result.Fixed)
}

func TestAudit_DailyCyclePeriodMismatch(t *testing.T) {
	f := newAuditFixture(t, 42)
	// A 7-day subscription stored with a 30-day period.
	periodStart := f.now.AddDate(0, 0, -3)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit04", TenantID: 42, PlanID: 1, PlanCode: "starter",
		BillingCycle: "daily", NumberOfDays: 7, Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodStart.AddDate(0, 0, 30),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	result := f.svc.CheckDailyCyclePeriods(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	stored, _ := f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, periodStart.AddDate(0, 0, 7), stored.CurrentPeriodEnd())
	// Corrected end is still in the future, so the status stays active.
	assert.Equal(t, vo.StatusActive, stored.Status())
}

func TestAudit_DailyCyclePeriodMismatch_CorrectedEndInPast(t *testing.T) {
	f := newAuditFixture(t, 42)
	periodStart := f.now.AddDate(0, 0, -20)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit05", TenantID: 42, PlanID: 1, PlanCode: "starter",
		BillingCycle: "daily", NumberOfDays: 7, Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodStart.AddDate(0, 0, 60),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	result := f.svc.CheckDailyCyclePeriods(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	// Corrected end was 13 days ago, beyond the grace window.
	stored, _ := f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, vo.StatusSuspended, stored.Status())
}

func TestAudit_OrphanedTenant(t *testing.T) {
	f := newAuditFixture(t, 42, 43)
	periodStart := f.now.AddDate(0, 0, -5)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit06", TenantID: 42, PlanID: 1, PlanCode: "starter",
		BillingCycle: "monthly", Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodStart.AddDate(0, 1, 0),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	result := f.svc.CheckOrphanedTenants(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, uint(43), result.Issues[0].TenantID)
	assert.Equal(t, 1, result.Fixed)

	created, err := f.subRepo.GetByTenantID(context.Background(), 43)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, vo.StatusTrial, created.Status())
	assert.Equal(t, "starter", created.PlanCode())
}

func TestAudit_PlanCodeDrift(t *testing.T) {
	f := newAuditFixture(t, 42)
	periodStart := f.now.AddDate(0, 0, -5)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit07", TenantID: 42, PlanID: 1, PlanCode: "legacy-basic",
		BillingCycle: "monthly", Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodStart.AddDate(0, 1, 0),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	result := f.svc.CheckPlanCodeDrift(context.Background(), false)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Fixed)

	stored, _ := f.subRepo.GetByTenantID(context.Background(), 42)
	assert.Equal(t, "starter", stored.PlanCode())
	assert.Equal(t, vo.StatusActive, stored.Status())
}

func TestAudit_FullAuditAggregatesAndIsIdempotent(t *testing.T) {
	f := newAuditFixture(t, 42, 43)
	periodStart := f.now.AddDate(0, -2, 0)
	f.seed(t, billing.ReconstructSubscriptionParams{
		ID: 1, SID: "sub_audit08", TenantID: 42, PlanID: 1, PlanCode: "legacy-basic",
		BillingCycle: "monthly", Status: "active",
		CurrentPeriodStart: periodStart, CurrentPeriodEnd: f.now.AddDate(0, 0, -2),
		IsTrialUsed: true, AutoRenew: true, Version: 1,
		CreatedAt: periodStart, UpdatedAt: periodStart,
	})

	// Dry run twice: same issue list both times.
	first, err := f.svc.RunFullAudit(context.Background(), true)
	require.NoError(t, err)
	second, err := f.svc.RunFullAudit(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, first.TotalIssues, second.TotalIssues)
	assert.Equal(t, 0, first.TotalFixed)
	require.Len(t, first.Checks, 5)

	// Live run fixes: stale active, orphaned tenant 43, plan-code drift.
	live, err := f.svc.RunFullAudit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, live.TotalFixed)

	// Second live run finds nothing left to fix.
	again, err := f.svc.RunFullAudit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TotalFixed)
}

func TestAudit_CheckNamesAreStable(t *testing.T) {
	f := newAuditFixture(t)
	report, err := f.svc.RunFullAudit(context.Background(), true)
	require.NoError(t, err)

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Check)
	}
	assert.Equal(t, []string{
		dto.AuditCheckDailyCyclePeriod,
		dto.AuditCheckStaleTrial,
		dto.AuditCheckStaleActive,
		dto.AuditCheckOrphanedTenant,
		dto.AuditCheckPlanCodeDrift,
	}, names)
}
