package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// DefaultRecordTimeout bounds the auditor's work on one record so a single
// pathological row cannot stall the whole sweep.
const DefaultRecordTimeout = 5 * time.Second

// AuditService reconciles stored subscription state against what the
// lifecycle rules say it should be. Five independent checks, each runnable
// standalone, each supporting dry-run. Fixes reuse the same aggregate
// methods the engine uses, so the auditor and the engine can never
// disagree about grace arithmetic. All checks are idempotent: a second
// live run right after the first fixes nothing.
type AuditService struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	tenants          billing.TenantDirectory
	notifier         SubscriptionChangeNotifier
	clock            Clock
	gracePeriodDays  int
	defaultPlanCode  string
	recordTimeout    time.Duration
	logger           logger.Interface
}

func NewAuditService(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	tenants billing.TenantDirectory,
	notifier SubscriptionChangeNotifier,
	clock Clock,
	gracePeriodDays int,
	defaultPlanCode string,
	recordTimeout time.Duration,
	logger logger.Interface,
) *AuditService {
	if recordTimeout <= 0 {
		recordTimeout = DefaultRecordTimeout
	}
	return &AuditService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		tenants:          tenants,
		notifier:         notifier,
		clock:            clock,
		gracePeriodDays:  gracePeriodDays,
		defaultPlanCode:  defaultPlanCode,
		recordTimeout:    recordTimeout,
		logger:           logger,
	}
}

// RunFullAudit executes all five checks and aggregates their results.
func (s *AuditService) RunFullAudit(ctx context.Context, dryRun bool) (*dto.AuditReport, error) {
	report := &dto.AuditReport{
		StartedAt: s.clock.Now(),
		DryRun:    dryRun,
	}

	checks := []func(context.Context, bool) dto.CheckResult{
		s.CheckDailyCyclePeriods,
		s.CheckStaleTrials,
		s.CheckStaleActive,
		s.CheckOrphanedTenants,
		s.CheckPlanCodeDrift,
	}

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.AddCheck(check(ctx, dryRun))
	}

	report.FinishedAt = s.clock.Now()

	s.logger.Infow("reconciliation audit finished",
		"dry_run", dryRun,
		"total_issues", report.TotalIssues,
		"total_fixed", report.TotalFixed,
	)
	return report, nil
}

// CheckDailyCyclePeriods flags daily-cycle subscriptions whose stored
// period is longer than numberOfDays plus one day of slack. The fix
// recomputes the period end and re-evaluates the status against now, so a
// corrected period already in the past lands in the right overdue state.
func (s *AuditService) CheckDailyCyclePeriods(ctx context.Context, dryRun bool) dto.CheckResult {
	result := dto.CheckResult{Check: dto.AuditCheckDailyCyclePeriod}

	subs, err := s.subscriptionRepo.FindByBillingCycle(ctx, vo.BillingCycleDaily)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list daily subscriptions: %v", err))
		return result
	}

	for _, sub := range subs {
		days := sub.NumberOfDays()
		if days < 1 {
			days = 1
		}
		maxEnd := sub.CurrentPeriodStart().AddDate(0, 0, days+1)
		if !sub.CurrentPeriodEnd().After(maxEnd) {
			continue
		}

		issue := dto.AuditIssue{
			Check:    dto.AuditCheckDailyCyclePeriod,
			TenantID: sub.TenantID(),
			SID:      sub.SID(),
			Detail: fmt.Sprintf("period %s..%s exceeds %d day(s)",
				sub.CurrentPeriodStart().Format(time.RFC3339),
				sub.CurrentPeriodEnd().Format(time.RFC3339),
				days),
		}

		if !dryRun {
			fixed, err := s.repairRecord(ctx, sub.TenantID(), func(fresh *billing.Subscription, now time.Time) (bool, error) {
				days := fresh.NumberOfDays()
				if days < 1 {
					days = 1
				}
				if !fresh.CurrentPeriodEnd().After(fresh.CurrentPeriodStart().AddDate(0, 0, days+1)) {
					return false, nil
				}
				fresh.RepairPeriodEnd(now)
				if _, err := fresh.EvaluateAt(now, s.gracePeriodDays); err != nil {
					return false, err
				}
				return true, nil
			})
			if err != nil {
				result.Errors = append(result.Errors, s.recordError(sub.TenantID(), err))
			} else if fixed {
				issue.Fixed = true
				result.Fixed++
			}
		}

		result.Issues = append(result.Issues, issue)
	}
	return result
}

// CheckStaleTrials flags trial subscriptions whose trial or period end has
// passed. The fix expires them.
func (s *AuditService) CheckStaleTrials(ctx context.Context, dryRun bool) dto.CheckResult {
	return s.checkStaleStatus(ctx, dryRun, dto.AuditCheckStaleTrial, vo.StatusTrial)
}

// CheckStaleActive flags active subscriptions whose period end has passed.
// The fix mirrors the engine's grace arithmetic: past_due within the grace
// window, suspended or expired beyond it.
func (s *AuditService) CheckStaleActive(ctx context.Context, dryRun bool) dto.CheckResult {
	return s.checkStaleStatus(ctx, dryRun, dto.AuditCheckStaleActive, vo.StatusActive)
}

func (s *AuditService) checkStaleStatus(ctx context.Context, dryRun bool, checkName string, status vo.SubscriptionStatus) dto.CheckResult {
	result := dto.CheckResult{Check: checkName}
	now := s.clock.Now()

	subs, err := s.subscriptionRepo.FindByStatus(ctx, status)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list %s subscriptions: %v", status, err))
		return result
	}

	for _, sub := range subs {
		if !s.isStale(sub, now) {
			continue
		}

		issue := dto.AuditIssue{
			Check:    checkName,
			TenantID: sub.TenantID(),
			SID:      sub.SID(),
			Detail: fmt.Sprintf("status %s but period ended %s",
				sub.Status(), sub.CurrentPeriodEnd().Format(time.RFC3339)),
		}

		if !dryRun {
			fixed, err := s.repairRecord(ctx, sub.TenantID(), func(fresh *billing.Subscription, now time.Time) (bool, error) {
				return fresh.EvaluateAt(now, s.gracePeriodDays)
			})
			if err != nil {
				result.Errors = append(result.Errors, s.recordError(sub.TenantID(), err))
			} else if fixed {
				issue.Fixed = true
				result.Fixed++
			}
		}

		result.Issues = append(result.Issues, issue)
	}
	return result
}

func (s *AuditService) isStale(sub *billing.Subscription, now time.Time) bool {
	switch sub.Status() {
	case vo.StatusTrial:
		if sub.TrialEndDate() != nil && !now.Before(*sub.TrialEndDate()) {
			return true
		}
		return !now.Before(sub.CurrentPeriodEnd())
	case vo.StatusActive:
		return !now.Before(sub.CurrentPeriodEnd())
	}
	return false
}

// CheckOrphanedTenants flags tenants with no subscription record at all.
// The fix creates a trial record on the default plan, or a pending_payment
// record when the default plan grants no trial.
func (s *AuditService) CheckOrphanedTenants(ctx context.Context, dryRun bool) dto.CheckResult {
	result := dto.CheckResult{Check: dto.AuditCheckOrphanedTenant}

	tenantIDs, err := s.tenants.ListTenantIDs(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list tenants: %v", err))
		return result
	}

	var defaultPlan *billing.Plan
	if !dryRun {
		defaultPlan, err = s.planRepo.GetByCode(ctx, s.defaultPlanCode)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to load default plan: %v", err))
			return result
		}
		if defaultPlan == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("default plan %q not found", s.defaultPlanCode))
			return result
		}
	}

	for _, tenantID := range tenantIDs {
		recordCtx, cancel := context.WithTimeout(ctx, s.recordTimeout)
		sub, err := s.subscriptionRepo.GetByTenantID(recordCtx, tenantID)
		cancel()
		if err != nil {
			result.Errors = append(result.Errors, s.recordError(tenantID, err))
			continue
		}
		if sub != nil {
			continue
		}

		issue := dto.AuditIssue{
			Check:    dto.AuditCheckOrphanedTenant,
			TenantID: tenantID,
			Detail:   "tenant has no subscription record",
		}

		if !dryRun {
			if err := s.createForOrphan(ctx, tenantID, defaultPlan); err != nil {
				result.Errors = append(result.Errors, s.recordError(tenantID, err))
			} else {
				issue.Fixed = true
				result.Fixed++
			}
		}

		result.Issues = append(result.Issues, issue)
	}
	return result
}

func (s *AuditService) createForOrphan(ctx context.Context, tenantID uint, plan *billing.Plan) error {
	recordCtx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	now := s.clock.Now()

	var (
		sub *billing.Subscription
		err error
	)
	if plan.GrantsTrial() {
		sub, err = billing.NewTrialSubscription(tenantID, plan, vo.BillingCycleMonthly, 0, now)
	} else {
		sub, err = billing.NewPendingSubscription(tenantID, plan, vo.BillingCycleMonthly, 0, now)
	}
	if err != nil {
		return err
	}
	return s.subscriptionRepo.Create(recordCtx, sub)
}

// CheckPlanCodeDrift flags subscriptions whose denormalized planCode does
// not match the plan row referenced by planID. The fix overwrites planCode
// from the canonical plan.
func (s *AuditService) CheckPlanCodeDrift(ctx context.Context, dryRun bool) dto.CheckResult {
	result := dto.CheckResult{Check: dto.AuditCheckPlanCodeDrift}

	page := 1
	const pageSize = 500
	for {
		subs, _, err := s.subscriptionRepo.List(ctx, billing.SubscriptionFilter{Page: page, PageSize: pageSize})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to list subscriptions: %v", err))
			return result
		}
		if len(subs) == 0 {
			break
		}

		for _, sub := range subs {
			recordCtx, cancel := context.WithTimeout(ctx, s.recordTimeout)
			plan, err := s.planRepo.GetByID(recordCtx, sub.PlanID())
			cancel()
			if err != nil {
				result.Errors = append(result.Errors, s.recordError(sub.TenantID(), err))
				continue
			}
			if plan == nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("tenant %d: plan %d referenced by subscription does not exist", sub.TenantID(), sub.PlanID()))
				continue
			}
			if plan.Code() == sub.PlanCode() {
				continue
			}

			issue := dto.AuditIssue{
				Check:    dto.AuditCheckPlanCodeDrift,
				TenantID: sub.TenantID(),
				SID:      sub.SID(),
				Detail:   fmt.Sprintf("stored plan code %q, canonical %q", sub.PlanCode(), plan.Code()),
			}

			if !dryRun {
				fixed, err := s.repairRecord(ctx, sub.TenantID(), func(fresh *billing.Subscription, now time.Time) (bool, error) {
					freshPlan, err := s.planRepo.GetByID(ctx, fresh.PlanID())
					if err != nil {
						return false, err
					}
					if freshPlan == nil || freshPlan.Code() == fresh.PlanCode() {
						return false, nil
					}
					return true, fresh.RepairPlanCode(now, freshPlan)
				})
				if err != nil {
					result.Errors = append(result.Errors, s.recordError(sub.TenantID(), err))
				} else if fixed {
					issue.Fixed = true
					result.Fixed++
				}
			}

			result.Issues = append(result.Issues, issue)
		}

		if len(subs) < pageSize {
			break
		}
		page++
	}
	return result
}

// repairRecord reloads the subscription under a per-record timeout, applies
// mutate, and persists when mutate reports a change. Lock conflicts retry
// once with fresh state. A status transition produced by the repair is
// published like any engine transition. Returns whether a change was
// actually persisted; a record that reloads clean counts as no fix.
func (s *AuditService) repairRecord(ctx context.Context, tenantID uint, mutate func(sub *billing.Subscription, now time.Time) (bool, error)) (bool, error) {
	recordCtx, cancel := context.WithTimeout(ctx, s.recordTimeout)
	defer cancel()

	now := s.clock.Now()
	var (
		persisted    bool
		notification *billing.SubscriptionChangedEvent
	)

	err := withConcurrencyRetry(recordCtx, func(ctx context.Context) error {
		persisted = false
		notification = nil

		sub, err := s.subscriptionRepo.GetByTenantID(ctx, tenantID)
		if err != nil {
			return err
		}
		if sub == nil {
			return billing.ErrSubscriptionNotFound
		}

		fromStatus := sub.Status()
		changed, err := mutate(sub, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}
		persisted = true
		if sub.Status() != fromStatus {
			event := billing.NewSubscriptionChangedEvent(sub, fromStatus, billing.ChangeReasonAuditRepair, now)
			notification = &event
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("record timed out after %s: %w", s.recordTimeout, err)
		}
		return false, err
	}

	if notification != nil {
		if err := s.notifier.NotifySubscriptionChanged(ctx, *notification); err != nil {
			s.logger.Warnw("failed to notify audit repair",
				"tenant_id", tenantID,
				"error", err,
			)
		}
	}
	return persisted, nil
}

func (s *AuditService) recordError(tenantID uint, err error) string {
	return fmt.Sprintf("tenant %d: %v", tenantID, err)
}
