package billing

import (
	"context"
	"time"

	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
)

// SubscriptionFilter narrows List queries. Zero values mean "no filter".
type SubscriptionFilter struct {
	TenantID uint
	Status   vo.SubscriptionStatus
	PlanCode string
	Page     int
	PageSize int
}

// SubscriptionRepository persists subscription aggregates. Update uses
// optimistic locking on the aggregate version and returns
// ErrConcurrentModification when the row moved underneath the caller.
// The usage counter methods mutate counts atomically in storage without
// going through the aggregate, so concurrent resource creation across
// instances cannot lose increments.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetByTenantID(ctx context.Context, tenantID uint) (*Subscription, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, int64, error)

	// FindDueForEvaluation returns subscriptions whose stored state may be
	// behind the clock at the given instant: trials past their end, active
	// periods past their end, and past_due rows past their grace window.
	FindDueForEvaluation(ctx context.Context, now time.Time) ([]*Subscription, error)

	FindByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]*Subscription, error)
	FindByBillingCycle(ctx context.Context, cycle vo.BillingCycle) ([]*Subscription, error)

	IncrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, delta uint) error
	// DecrementUsage clamps the stored counter at zero.
	DecrementUsage(ctx context.Context, tenantID uint, resource vo.Resource, delta uint) error
	SyncUsage(ctx context.Context, tenantID uint, shops, employees, products uint) error
}

// PlanRepository persists the plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, includeInactive bool) ([]*Plan, error)
}

// BillingEventRepository persists the payment event inbox.
type BillingEventRepository interface {
	Create(ctx context.Context, event *BillingEvent) error
	Update(ctx context.Context, event *BillingEvent) error
	GetByEID(ctx context.Context, eid string) (*BillingEvent, error)
	// FindUnprocessed returns pending events ordered by occurredAt then by
	// receivedAt for deterministic application order.
	FindUnprocessed(ctx context.Context, limit int) ([]*BillingEvent, error)
	FindUnprocessedByTenant(ctx context.Context, tenantID uint) ([]*BillingEvent, error)
}

// TenantDirectory exposes the minimum the billing core needs to know about
// tenants owned by the wider platform.
type TenantDirectory interface {
	ListTenantIDs(ctx context.Context) ([]uint, error)
	Exists(ctx context.Context, tenantID uint) (bool, error)
}
