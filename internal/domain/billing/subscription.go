package billing

import (
	"fmt"
	"time"

	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
	"github.com/dukapos/dukapos/internal/shared/id"
)

// Subscription is the per-tenant billing aggregate. Every state mutation
// bumps version; the repository uses it for optimistic locking. All
// transition methods take the evaluation instant explicitly so that the
// lifecycle engine, payment ingestion, and the auditor share one clock
// discipline: payments always win over the clock, and when both a payment
// and an overdue boundary apply, the payment is applied first.
type Subscription struct {
	id                      uint
	sid                     string
	tenantID                uint
	planID                  uint
	planCode                string
	billingCycle            vo.BillingCycle
	numberOfDays            int
	status                  vo.SubscriptionStatus
	currentPeriodStart      time.Time
	currentPeriodEnd        time.Time
	gracePeriodEndDate      *time.Time
	trialEndDate            *time.Time
	isTrialUsed             bool
	currentPrice            uint64
	autoRenew               bool
	shopCount               uint
	employeeCount           uint
	productCount            uint
	pendingUpgradePlanID    *uint
	pendingUpgradePlanCode  *string
	pendingUpgradeExpiresAt *time.Time
	cancelledAt             *time.Time
	cancelReason            *string
	metadata                map[string]any
	version                 int
	createdAt               time.Time
	updatedAt               time.Time
}

// NewTrialSubscription starts a tenant on the plan's free trial. The trial
// period doubles as the current billing period and the trial is consumed
// immediately so a cancel-and-resubscribe cannot obtain a second one.
func NewTrialSubscription(tenantID uint, plan *Plan, cycle vo.BillingCycle, numberOfDays int, now time.Time) (*Subscription, error) {
	if err := validateSubscriptionInputs(tenantID, plan, cycle, numberOfDays); err != nil {
		return nil, err
	}
	if !plan.GrantsTrial() {
		return nil, fmt.Errorf("plan %s does not grant a trial", plan.Code())
	}

	now = now.UTC()
	trialEnd := now.AddDate(0, 0, plan.TrialDays())

	return &Subscription{
		sid:                id.NewSubscriptionSID(),
		tenantID:           tenantID,
		planID:             plan.ID(),
		planCode:           plan.Code(),
		billingCycle:       cycle,
		numberOfDays:       numberOfDays,
		status:             vo.StatusTrial,
		currentPeriodStart: now,
		currentPeriodEnd:   trialEnd,
		trialEndDate:       &trialEnd,
		isTrialUsed:        true,
		autoRenew:          true,
		metadata:           map[string]any{},
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// NewPendingSubscription creates a subscription awaiting its first payment.
// Used when the plan has no trial or the tenant already consumed one.
func NewPendingSubscription(tenantID uint, plan *Plan, cycle vo.BillingCycle, numberOfDays int, now time.Time) (*Subscription, error) {
	if err := validateSubscriptionInputs(tenantID, plan, cycle, numberOfDays); err != nil {
		return nil, err
	}

	now = now.UTC()

	return &Subscription{
		sid:                id.NewSubscriptionSID(),
		tenantID:           tenantID,
		planID:             plan.ID(),
		planCode:           plan.Code(),
		billingCycle:       cycle,
		numberOfDays:       numberOfDays,
		status:             vo.StatusPendingPayment,
		currentPeriodStart: now,
		currentPeriodEnd:   cycle.NextPeriodEnd(now, numberOfDays),
		autoRenew:          true,
		metadata:           map[string]any{},
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

func validateSubscriptionInputs(tenantID uint, plan *Plan, cycle vo.BillingCycle, numberOfDays int) error {
	if tenantID == 0 {
		return fmt.Errorf("tenant ID cannot be zero")
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	if plan.ID() == 0 {
		return fmt.Errorf("plan must be persisted before subscribing")
	}
	if !plan.IsActive() {
		return ErrPlanInactive
	}
	if !cycle.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidBillingCycle, cycle)
	}
	if cycle == vo.BillingCycleDaily && numberOfDays < 1 {
		return fmt.Errorf("daily billing requires at least one day")
	}
	return nil
}

// ReconstructSubscriptionParams carries persisted state back into the aggregate.
type ReconstructSubscriptionParams struct {
	ID                      uint
	SID                     string
	TenantID                uint
	PlanID                  uint
	PlanCode                string
	BillingCycle            string
	NumberOfDays            int
	Status                  string
	CurrentPeriodStart      time.Time
	CurrentPeriodEnd        time.Time
	GracePeriodEndDate      *time.Time
	TrialEndDate            *time.Time
	IsTrialUsed             bool
	CurrentPrice            uint64
	AutoRenew               bool
	ShopCount               uint
	EmployeeCount           uint
	ProductCount            uint
	PendingUpgradePlanID    *uint
	PendingUpgradePlanCode  *string
	PendingUpgradeExpiresAt *time.Time
	CancelledAt             *time.Time
	CancelReason            *string
	Metadata                map[string]any
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func ReconstructSubscription(params ReconstructSubscriptionParams) (*Subscription, error) {
	if params.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if params.TenantID == 0 {
		return nil, fmt.Errorf("tenant ID cannot be zero")
	}

	status := vo.SubscriptionStatus(params.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", params.Status)
	}

	cycle, err := vo.ParseBillingCycle(params.BillingCycle)
	if err != nil {
		return nil, err
	}

	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Subscription{
		id:                      params.ID,
		sid:                     params.SID,
		tenantID:                params.TenantID,
		planID:                  params.PlanID,
		planCode:                params.PlanCode,
		billingCycle:            cycle,
		numberOfDays:            params.NumberOfDays,
		status:                  status,
		currentPeriodStart:      params.CurrentPeriodStart,
		currentPeriodEnd:        params.CurrentPeriodEnd,
		gracePeriodEndDate:      params.GracePeriodEndDate,
		trialEndDate:            params.TrialEndDate,
		isTrialUsed:             params.IsTrialUsed,
		currentPrice:            params.CurrentPrice,
		autoRenew:               params.AutoRenew,
		shopCount:               params.ShopCount,
		employeeCount:           params.EmployeeCount,
		productCount:            params.ProductCount,
		pendingUpgradePlanID:    params.PendingUpgradePlanID,
		pendingUpgradePlanCode:  params.PendingUpgradePlanCode,
		pendingUpgradeExpiresAt: params.PendingUpgradeExpiresAt,
		cancelledAt:             params.CancelledAt,
		cancelReason:            params.CancelReason,
		metadata:                metadata,
		version:                 params.Version,
		createdAt:               params.CreatedAt,
		updatedAt:               params.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                           { return s.id }
func (s *Subscription) SID() string                        { return s.sid }
func (s *Subscription) TenantID() uint                     { return s.tenantID }
func (s *Subscription) PlanID() uint                       { return s.planID }
func (s *Subscription) PlanCode() string                   { return s.planCode }
func (s *Subscription) BillingCycle() vo.BillingCycle      { return s.billingCycle }
func (s *Subscription) NumberOfDays() int                  { return s.numberOfDays }
func (s *Subscription) Status() vo.SubscriptionStatus      { return s.status }
func (s *Subscription) CurrentPeriodStart() time.Time      { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() time.Time        { return s.currentPeriodEnd }
func (s *Subscription) GracePeriodEndDate() *time.Time     { return s.gracePeriodEndDate }
func (s *Subscription) TrialEndDate() *time.Time           { return s.trialEndDate }
func (s *Subscription) IsTrialUsed() bool                  { return s.isTrialUsed }
func (s *Subscription) CurrentPrice() uint64               { return s.currentPrice }
func (s *Subscription) AutoRenew() bool                    { return s.autoRenew }
func (s *Subscription) ShopCount() uint                    { return s.shopCount }
func (s *Subscription) EmployeeCount() uint                { return s.employeeCount }
func (s *Subscription) ProductCount() uint                 { return s.productCount }
func (s *Subscription) PendingUpgradePlanID() *uint        { return s.pendingUpgradePlanID }
func (s *Subscription) PendingUpgradePlanCode() *string    { return s.pendingUpgradePlanCode }
func (s *Subscription) PendingUpgradeExpiresAt() *time.Time { return s.pendingUpgradeExpiresAt }
func (s *Subscription) CancelledAt() *time.Time            { return s.cancelledAt }
func (s *Subscription) CancelReason() *string              { return s.cancelReason }
func (s *Subscription) Metadata() map[string]any           { return s.metadata }
func (s *Subscription) Version() int                       { return s.version }
func (s *Subscription) CreatedAt() time.Time               { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time               { return s.updatedAt }

func (s *Subscription) SetID(subID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if subID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = subID
	return nil
}

// IsUsable reports whether the tenant currently has full service access.
func (s *Subscription) IsUsable() bool {
	return s.status.CanUseService()
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now.UTC()
	s.version++
}

// RecordPayment applies a successful payment at the given instant. The
// payment resets the billing period from the payment time, clears any grace
// window, consumes a live pending upgrade, and snapshots the paid amount.
// A payment in trial converts the subscription to a paid one early.
func (s *Subscription) RecordPayment(now time.Time, amount uint64) error {
	if !s.status.CanAcceptPayment() {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}

	now = now.UTC()

	if s.hasLiveUpgrade(now) {
		s.planID = *s.pendingUpgradePlanID
		s.planCode = *s.pendingUpgradePlanCode
	}
	s.clearPendingUpgrade()

	if s.status == vo.StatusTrial {
		s.isTrialUsed = true
	}

	s.status = vo.StatusActive
	s.currentPeriodStart = now
	s.currentPeriodEnd = s.billingCycle.NextPeriodEnd(now, s.numberOfDays)
	s.gracePeriodEndDate = nil
	s.currentPrice = amount
	s.touch(now)
	return nil
}

func (s *Subscription) hasLiveUpgrade(now time.Time) bool {
	return s.pendingUpgradePlanID != nil &&
		s.pendingUpgradePlanCode != nil &&
		s.pendingUpgradeExpiresAt != nil &&
		s.pendingUpgradeExpiresAt.After(now)
}

func (s *Subscription) clearPendingUpgrade() {
	s.pendingUpgradePlanID = nil
	s.pendingUpgradePlanCode = nil
	s.pendingUpgradeExpiresAt = nil
}

// EvaluateAt advances the lifecycle to where the clock says it should be
// and reports whether anything changed. Boundaries are inclusive: a
// subscription whose period ends exactly now is already overdue. When a
// subscription is found so late that the grace window has also elapsed, it
// goes straight to the deeper state rather than restarting grace from now.
func (s *Subscription) EvaluateAt(now time.Time, gracePeriodDays int) (bool, error) {
	now = now.UTC()
	changed := false

	if s.pendingUpgradeExpiresAt != nil && !s.pendingUpgradeExpiresAt.After(now) {
		s.clearPendingUpgrade()
		changed = true
	}

	switch s.status {
	case vo.StatusTrial:
		// The period end backstops a missing or drifted trialEndDate so a
		// malformed trial row still expires.
		trialOver := s.trialEndDate != nil && !now.Before(*s.trialEndDate)
		if trialOver || !now.Before(s.currentPeriodEnd) {
			s.status = vo.StatusExpired
			changed = true
		}

	case vo.StatusActive:
		if !now.Before(s.currentPeriodEnd) {
			if !s.autoRenew {
				s.status = vo.StatusExpired
				s.gracePeriodEndDate = nil
				changed = true
				break
			}

			graceFromPeriodEnd := s.currentPeriodEnd.AddDate(0, 0, gracePeriodDays)
			if !now.Before(graceFromPeriodEnd) {
				s.status = vo.StatusSuspended
				s.gracePeriodEndDate = nil
			} else {
				graceEnd := now.AddDate(0, 0, gracePeriodDays)
				s.status = vo.StatusPastDue
				s.gracePeriodEndDate = &graceEnd
			}
			changed = true
		}

	case vo.StatusPastDue:
		if s.gracePeriodEndDate != nil && !now.Before(*s.gracePeriodEndDate) {
			s.status = vo.StatusSuspended
			s.gracePeriodEndDate = nil
			changed = true
		}
	}

	if changed {
		s.touch(now)
	}
	return changed, nil
}

// Cancel tears the subscription down immediately. Reachable from every
// state except cancelled itself; usage counters are preserved for a
// possible reactivation.
func (s *Subscription) Cancel(now time.Time, reason string) error {
	if s.status == vo.StatusCancelled {
		return ErrInvalidTransition(s.status.String(), vo.StatusCancelled.String())
	}

	now = now.UTC()
	s.status = vo.StatusCancelled
	s.cancelledAt = &now
	if reason != "" {
		s.cancelReason = &reason
	} else {
		s.cancelReason = nil
	}
	s.clearPendingUpgrade()
	s.gracePeriodEndDate = nil
	s.touch(now)
	return nil
}

// Reactivate revives a cancelled or expired subscription. A tenant who never
// consumed a trial and whose plan grants one restarts in trial; otherwise
// the subscription resumes active if paid-up time remains, or waits for
// payment if the period has fully elapsed.
func (s *Subscription) Reactivate(now time.Time, plan *Plan) error {
	if s.status != vo.StatusCancelled && s.status != vo.StatusExpired {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	if !plan.IsActive() {
		return ErrPlanInactive
	}

	now = now.UTC()

	switch {
	case !s.isTrialUsed && plan.GrantsTrial():
		trialEnd := now.AddDate(0, 0, plan.TrialDays())
		s.status = vo.StatusTrial
		s.currentPeriodStart = now
		s.currentPeriodEnd = trialEnd
		s.trialEndDate = &trialEnd
		s.isTrialUsed = true

	case s.currentPeriodEnd.After(now):
		s.status = vo.StatusActive

	default:
		s.status = vo.StatusPendingPayment
		s.currentPeriodStart = now
		s.currentPeriodEnd = s.billingCycle.NextPeriodEnd(now, s.numberOfDays)
	}

	s.planID = plan.ID()
	s.planCode = plan.Code()
	s.cancelledAt = nil
	s.cancelReason = nil
	s.gracePeriodEndDate = nil
	s.touch(now)
	return nil
}

// RequestUpgrade records the tenant's intent to move to a bigger plan. The
// request takes effect at the next successful payment and silently lapses
// at expiresAt if no payment arrives.
func (s *Subscription) RequestUpgrade(now time.Time, plan *Plan, expiresAt time.Time) error {
	if plan == nil {
		return ErrPlanNotFound
	}
	if !plan.IsActive() {
		return ErrPlanInactive
	}
	if plan.ID() == s.planID {
		return fmt.Errorf("already subscribed to plan %s", plan.Code())
	}
	if !expiresAt.After(now) {
		return fmt.Errorf("upgrade expiry must be in the future")
	}

	now = now.UTC()
	planID := plan.ID()
	planCode := plan.Code()
	expiry := expiresAt.UTC()
	s.pendingUpgradePlanID = &planID
	s.pendingUpgradePlanCode = &planCode
	s.pendingUpgradeExpiresAt = &expiry
	s.touch(now)
	return nil
}

func (s *Subscription) SetAutoRenew(now time.Time, autoRenew bool) {
	if s.autoRenew == autoRenew {
		return
	}
	s.autoRenew = autoRenew
	s.touch(now)
}

// UsageCount returns the tracked counter for the given resource.
func (s *Subscription) UsageCount(resource vo.Resource) (uint, error) {
	switch resource {
	case vo.ResourceShops:
		return s.shopCount, nil
	case vo.ResourceEmployees:
		return s.employeeCount, nil
	case vo.ResourceProducts:
		return s.productCount, nil
	default:
		return 0, fmt.Errorf("invalid resource: %s", resource)
	}
}

// SyncUsageCounts overwrites all counters with authoritative values, such
// as fresh COUNT(*) results from the operational tables.
func (s *Subscription) SyncUsageCounts(now time.Time, shops, employees, products uint) {
	s.shopCount = shops
	s.employeeCount = employees
	s.productCount = products
	s.touch(now)
}

// RepairPeriodEnd recomputes currentPeriodEnd from the period start and the
// billing cycle. Used by the reconciliation auditor when the stored period
// length does not match the cycle.
func (s *Subscription) RepairPeriodEnd(now time.Time) {
	s.currentPeriodEnd = s.billingCycle.NextPeriodEnd(s.currentPeriodStart, s.numberOfDays)
	s.touch(now)
}

// RepairPlanCode overwrites the denormalized plan code from the canonical
// plan row referenced by planID.
func (s *Subscription) RepairPlanCode(now time.Time, plan *Plan) error {
	if plan == nil || plan.ID() != s.planID {
		return ErrPlanNotFound
	}
	if s.planCode == plan.Code() {
		return nil
	}
	s.planCode = plan.Code()
	s.touch(now)
	return nil
}

func (s *Subscription) SetMetadata(key string, value any) {
	if s.metadata == nil {
		s.metadata = map[string]any{}
	}
	s.metadata[key] = value
}
