package usecases

import (
	"context"
	"fmt"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/biztime"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// warningThresholdDays is the widest lookahead for expiry warnings.
const warningThresholdDays = 7

// AccessService derives a coarse access level and user-facing warnings from
// the stored subscription status. It only reads locally materialized state
// and never waits on external systems. On infrastructure failure it fails
// open with full access: a broken enforcement path must not take every
// tenant's shop down, so availability wins and the error is logged loudly.
type AccessService struct {
	subscriptionRepo billing.SubscriptionRepository
	clock            Clock
	paymentURL       string
	logger           logger.Interface
}

func NewAccessService(
	subscriptionRepo billing.SubscriptionRepository,
	clock Clock,
	paymentURL string,
	logger logger.Interface,
) *AccessService {
	return &AccessService{
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
		paymentURL:       paymentURL,
		logger:           logger,
	}
}

// CheckAccess evaluates the tenant's access level at the current instant.
func (s *AccessService) CheckAccess(ctx context.Context, tenantID uint) *dto.AccessResult {
	now := s.clock.Now()

	sub, err := s.subscriptionRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		s.logger.Errorw("access check failed, failing open",
			"tenant_id", tenantID,
			"error", err,
		)
		return &dto.AccessResult{
			TenantID:       tenantID,
			Level:          dto.AccessFull,
			Message:        "subscription status temporarily unavailable",
			CanMakePayment: true,
			Degraded:       true,
		}
	}

	if sub == nil {
		return &dto.AccessResult{
			TenantID: tenantID,
			Level:    dto.AccessNone,
			Message:  "no subscription found; sign up for a plan to get started",
		}
	}

	result := &dto.AccessResult{
		TenantID:       tenantID,
		Status:         sub.Status().String(),
		CanMakePayment: sub.Status().CanAcceptPayment(),
		Summary: &dto.SubscriptionSummary{
			SID:              sub.SID(),
			PlanCode:         sub.PlanCode(),
			Status:           sub.Status().String(),
			BillingCycle:     sub.BillingCycle().String(),
			CurrentPeriodEnd: biztime.FormatMetadataTime(sub.CurrentPeriodEnd()),
			AutoRenew:        sub.AutoRenew(),
		},
	}

	switch sub.Status() {
	case vo.StatusActive, vo.StatusTrial:
		result.Level = dto.AccessFull
		result.DaysRemaining = biztime.DaysUntil(now, sub.CurrentPeriodEnd())
	case vo.StatusPastDue:
		result.Level = dto.AccessReadOnly
		if sub.GracePeriodEndDate() != nil {
			result.DaysRemaining = biztime.DaysUntil(now, *sub.GracePeriodEndDate())
		}
		result.Message = fmt.Sprintf(
			"payment overdue; service becomes suspended in %d day(s) unless payment is received", result.DaysRemaining)
	case vo.StatusSuspended:
		result.Level = dto.AccessBlocked
		result.Message = "service suspended for non-payment; pay now to restore access"
	case vo.StatusExpired:
		result.Level = dto.AccessBlocked
		result.Message = "subscription expired; renew to restore access"
	case vo.StatusCancelled:
		result.Level = dto.AccessBlocked
		result.Message = "subscription cancelled; reactivate to restore access"
	case vo.StatusPendingPayment:
		result.Level = dto.AccessBlocked
		result.Message = "complete your first payment to activate the service"
	default:
		result.Level = dto.AccessBlocked
		result.Message = "subscription is in an unrecognized state; contact support"
	}

	return result
}

// GetWarnings returns urgency-tagged warnings for approaching or arrived
// billing boundaries.
func (s *AccessService) GetWarnings(ctx context.Context, tenantID uint) ([]dto.Warning, error) {
	now := s.clock.Now()

	sub, err := s.subscriptionRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		s.logger.Errorw("warning lookup failed",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}
	if sub == nil {
		return nil, billing.ErrSubscriptionNotFound
	}

	var warnings []dto.Warning

	switch sub.Status() {
	case vo.StatusTrial:
		days := biztime.DaysUntil(now, sub.CurrentPeriodEnd())
		if days <= warningThresholdDays {
			warnings = append(warnings, dto.Warning{
				Severity:      severityForDays(days),
				Code:          "trial_ending",
				Message:       fmt.Sprintf("your free trial ends in %d day(s)", days),
				DaysRemaining: days,
				ActionLabel:   "Choose a plan",
				ActionURL:     s.paymentURL,
			})
		}
	case vo.StatusActive:
		days := biztime.DaysUntil(now, sub.CurrentPeriodEnd())
		if days <= warningThresholdDays {
			message := fmt.Sprintf("your subscription renews in %d day(s)", days)
			if !sub.AutoRenew() {
				message = fmt.Sprintf("your subscription expires in %d day(s)", days)
			}
			warnings = append(warnings, dto.Warning{
				Severity:      severityForDays(days),
				Code:          "renewal_due",
				Message:       message,
				DaysRemaining: days,
				ActionLabel:   "Pay now",
				ActionURL:     s.paymentURL,
			})
		}
	case vo.StatusPastDue:
		days := 0
		if sub.GracePeriodEndDate() != nil {
			days = biztime.DaysUntil(now, *sub.GracePeriodEndDate())
		}
		warnings = append(warnings, dto.Warning{
			Severity:      dto.SeverityCritical,
			Code:          "payment_overdue",
			Message:       fmt.Sprintf("payment overdue; service will be suspended in %d day(s)", days),
			DaysRemaining: days,
			ActionLabel:   "Pay now",
			ActionURL:     s.paymentURL,
		})
	case vo.StatusSuspended:
		warnings = append(warnings, dto.Warning{
			Severity:    dto.SeverityCritical,
			Code:        "suspended",
			Message:     "service suspended for non-payment",
			ActionLabel: "Pay now",
			ActionURL:   s.paymentURL,
		})
	case vo.StatusExpired:
		warnings = append(warnings, dto.Warning{
			Severity:    dto.SeverityCritical,
			Code:        "expired",
			Message:     "subscription expired",
			ActionLabel: "Renew",
			ActionURL:   s.paymentURL,
		})
	case vo.StatusCancelled:
		warnings = append(warnings, dto.Warning{
			Severity:    dto.SeverityCritical,
			Code:        "cancelled",
			Message:     "subscription cancelled",
			ActionLabel: "Reactivate",
			ActionURL:   s.paymentURL,
		})
	}

	return warnings, nil
}

func severityForDays(days int) string {
	switch {
	case days <= 1:
		return dto.SeverityError
	case days <= 3:
		return dto.SeverityWarning
	default:
		return dto.SeverityInfo
	}
}

// IsOperationAllowed reduces access level and operation kind to an
// allow/deny decision. Full access allows everything; read_only allows read
// and reports; blocked and none deny everything.
func (s *AccessService) IsOperationAllowed(ctx context.Context, tenantID uint, operation string) *dto.OperationDecision {
	access := s.CheckAccess(ctx, tenantID)

	switch access.Level {
	case dto.AccessFull:
		return &dto.OperationDecision{Allowed: true}
	case dto.AccessReadOnly:
		if operation == dto.OperationRead || operation == dto.OperationReports {
			return &dto.OperationDecision{Allowed: true}
		}
		return &dto.OperationDecision{
			Allowed: false,
			Reason:  access.Message,
		}
	default:
		reason := access.Message
		if reason == "" {
			reason = "service access is blocked"
		}
		return &dto.OperationDecision{Allowed: false, Reason: reason}
	}
}
