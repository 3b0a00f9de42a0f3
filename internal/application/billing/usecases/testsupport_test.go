package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/dukapos/dukapos/internal/domain/billing"
	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
)

// cloneSubscription snapshots an aggregate so the in-memory repositories
// behave like real storage: callers get a fresh copy, not a shared pointer.
func cloneSubscription(sub *billing.Subscription) *billing.Subscription {
	clone, err := billing.ReconstructSubscription(billing.ReconstructSubscriptionParams{
		ID:                      sub.ID(),
		SID:                     sub.SID(),
		TenantID:                sub.TenantID(),
		PlanID:                  sub.PlanID(),
		PlanCode:                sub.PlanCode(),
		BillingCycle:            sub.BillingCycle().String(),
		NumberOfDays:            sub.NumberOfDays(),
		Status:                  sub.Status().String(),
		CurrentPeriodStart:      sub.CurrentPeriodStart(),
		CurrentPeriodEnd:        sub.CurrentPeriodEnd(),
		GracePeriodEndDate:      sub.GracePeriodEndDate(),
		TrialEndDate:            sub.TrialEndDate(),
		IsTrialUsed:             sub.IsTrialUsed(),
		CurrentPrice:            sub.CurrentPrice(),
		AutoRenew:               sub.AutoRenew(),
		ShopCount:               sub.ShopCount(),
		EmployeeCount:           sub.EmployeeCount(),
		ProductCount:            sub.ProductCount(),
		PendingUpgradePlanID:    sub.PendingUpgradePlanID(),
		PendingUpgradePlanCode:  sub.PendingUpgradePlanCode(),
		PendingUpgradeExpiresAt: sub.PendingUpgradeExpiresAt(),
		CancelledAt:             sub.CancelledAt(),
		CancelReason:            sub.CancelReason(),
		Metadata:                sub.Metadata(),
		Version:                 sub.Version(),
		CreatedAt:               sub.CreatedAt(),
		UpdatedAt:               sub.UpdatedAt(),
	})
	if err != nil {
		panic(err)
	}
	return clone
}

type memSubscriptionRepo struct {
	mu       sync.Mutex
	byTenant map[uint]*billing.Subscription
	nextID   uint

	getErr        error
	conflictCount int
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{byTenant: map[uint]*billing.Subscription{}, nextID: 1}
}

func (r *memSubscriptionRepo) put(sub *billing.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTenant[sub.TenantID()] = cloneSubscription(sub)
}

func (r *memSubscriptionRepo) Create(_ context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID() == 0 {
		if err := sub.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byTenant[sub.TenantID()] = cloneSubscription(sub)
	return nil
}

func (r *memSubscriptionRepo) Update(_ context.Context, sub *billing.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictCount > 0 {
		r.conflictCount--
		return billing.ErrConcurrentModification
	}
	stored, ok := r.byTenant[sub.TenantID()]
	if !ok {
		return billing.ErrSubscriptionNotFound
	}
	if sub.Version() <= stored.Version() {
		return billing.ErrConcurrentModification
	}
	r.byTenant[sub.TenantID()] = cloneSubscription(sub)
	return nil
}

func (r *memSubscriptionRepo) GetByID(_ context.Context, id uint) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.byTenant {
		if sub.ID() == id {
			return cloneSubscription(sub), nil
		}
	}
	return nil, nil
}

func (r *memSubscriptionRepo) GetBySID(_ context.Context, sid string) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.byTenant {
		if sub.SID() == sid {
			return cloneSubscription(sub), nil
		}
	}
	return nil, nil
}

func (r *memSubscriptionRepo) GetByTenantID(_ context.Context, tenantID uint) (*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	sub, ok := r.byTenant[tenantID]
	if !ok {
		return nil, nil
	}
	return cloneSubscription(sub), nil
}

func (r *memSubscriptionRepo) List(_ context.Context, filter billing.SubscriptionFilter) ([]*billing.Subscription, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Subscription
	for _, sub := range r.byTenant {
		if filter.Status != "" && sub.Status() != filter.Status {
			continue
		}
		out = append(out, cloneSubscription(sub))
	}
	if filter.Page > 1 {
		return nil, int64(len(out)), nil
	}
	return out, int64(len(out)), nil
}

func (r *memSubscriptionRepo) FindDueForEvaluation(_ context.Context, now time.Time) ([]*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Subscription
	for _, sub := range r.byTenant {
		switch sub.Status() {
		case vo.StatusTrial, vo.StatusActive:
			if !now.Before(sub.CurrentPeriodEnd()) {
				out = append(out, cloneSubscription(sub))
			}
		case vo.StatusPastDue:
			if sub.GracePeriodEndDate() != nil && !now.Before(*sub.GracePeriodEndDate()) {
				out = append(out, cloneSubscription(sub))
			}
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) FindByStatus(_ context.Context, status vo.SubscriptionStatus) ([]*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Subscription
	for _, sub := range r.byTenant {
		if sub.Status() == status {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) FindByBillingCycle(_ context.Context, cycle vo.BillingCycle) ([]*billing.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Subscription
	for _, sub := range r.byTenant {
		if sub.BillingCycle() == cycle {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) adjustUsage(tenantID uint, resource vo.Resource, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byTenant[tenantID]
	if !ok {
		return billing.ErrSubscriptionNotFound
	}

	shops, employees, products := int(sub.ShopCount()), int(sub.EmployeeCount()), int(sub.ProductCount())
	switch resource {
	case vo.ResourceShops:
		shops += delta
	case vo.ResourceEmployees:
		employees += delta
	case vo.ResourceProducts:
		products += delta
	}
	sub.SyncUsageCounts(time.Now().UTC(), clampNonNegative(shops), clampNonNegative(employees), clampNonNegative(products))
	return nil
}

func clampNonNegative(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}

func (r *memSubscriptionRepo) IncrementUsage(_ context.Context, tenantID uint, resource vo.Resource, delta uint) error {
	return r.adjustUsage(tenantID, resource, int(delta))
}

func (r *memSubscriptionRepo) DecrementUsage(_ context.Context, tenantID uint, resource vo.Resource, delta uint) error {
	return r.adjustUsage(tenantID, resource, -int(delta))
}

func (r *memSubscriptionRepo) SyncUsage(_ context.Context, tenantID uint, shops, employees, products uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byTenant[tenantID]
	if !ok {
		return billing.ErrSubscriptionNotFound
	}
	sub.SyncUsageCounts(time.Now().UTC(), shops, employees, products)
	return nil
}

type memPlanRepo struct {
	mu     sync.Mutex
	byID   map[uint]*billing.Plan
	nextID uint
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{byID: map[uint]*billing.Plan{}, nextID: 1}
}

func (r *memPlanRepo) Create(_ context.Context, plan *billing.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID() == 0 {
		if err := plan.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.byID[plan.ID()] = plan
	return nil
}

func (r *memPlanRepo) Update(_ context.Context, plan *billing.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[plan.ID()] = plan
	return nil
}

func (r *memPlanRepo) GetByID(_ context.Context, id uint) (*billing.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memPlanRepo) GetByCode(_ context.Context, code string) (*billing.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, plan := range r.byID {
		if plan.Code() == code {
			return plan, nil
		}
	}
	return nil, nil
}

func (r *memPlanRepo) List(_ context.Context, includeInactive bool) ([]*billing.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.Plan
	for _, plan := range r.byID {
		if !includeInactive && !plan.IsActive() {
			continue
		}
		out = append(out, plan)
	}
	return out, nil
}

type memBillingEventRepo struct {
	mu     sync.Mutex
	events []*billing.BillingEvent
	nextID uint
}

func newMemBillingEventRepo() *memBillingEventRepo {
	return &memBillingEventRepo{nextID: 1}
}

func (r *memBillingEventRepo) Create(_ context.Context, event *billing.BillingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID() == 0 {
		if err := event.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	r.events = append(r.events, event)
	return nil
}

func (r *memBillingEventRepo) Update(_ context.Context, _ *billing.BillingEvent) error {
	return nil
}

func (r *memBillingEventRepo) GetByEID(_ context.Context, eid string) (*billing.BillingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.EID() == eid {
			return event, nil
		}
	}
	return nil, nil
}

func (r *memBillingEventRepo) FindUnprocessed(_ context.Context, limit int) ([]*billing.BillingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.BillingEvent
	for _, event := range r.events {
		if event.IsProcessed() {
			continue
		}
		out = append(out, event)
		if len(out) == limit {
			break
		}
	}
	sortEventsByOccurrence(out)
	return out, nil
}

func (r *memBillingEventRepo) FindUnprocessedByTenant(_ context.Context, tenantID uint) ([]*billing.BillingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*billing.BillingEvent
	for _, event := range r.events {
		if !event.IsProcessed() && event.TenantID() == tenantID {
			out = append(out, event)
		}
	}
	return out, nil
}

func sortEventsByOccurrence(events []*billing.BillingEvent) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].OccurredAt().Before(events[j-1].OccurredAt()); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

type memTenantDirectory struct {
	ids []uint
}

func (d *memTenantDirectory) ListTenantIDs(_ context.Context) ([]uint, error) {
	return d.ids, nil
}

func (d *memTenantDirectory) Exists(_ context.Context, tenantID uint) (bool, error) {
	for _, id := range d.ids {
		if id == tenantID {
			return true, nil
		}
	}
	return false, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []billing.SubscriptionChangedEvent
}

func (n *captureNotifier) NotifySubscriptionChanged(_ context.Context, event billing.SubscriptionChangedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) captured() []billing.SubscriptionChangedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]billing.SubscriptionChangedEvent(nil), n.events...)
}
