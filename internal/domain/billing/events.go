package billing

import (
	"time"

	vo "github.com/dukapos/dukapos/internal/domain/billing/valueobjects"
)

// Change reasons carried on SubscriptionChangedEvent.
const (
	ChangeReasonSignup       = "signup"
	ChangeReasonPayment      = "payment"
	ChangeReasonClock        = "clock"
	ChangeReasonCancellation = "cancellation"
	ChangeReasonReactivation = "reactivation"
	ChangeReasonAuditRepair  = "audit_repair"
)

// SubscriptionChangedEvent is published after a lifecycle transition has
// been committed. Consumers must treat it as advisory; the subscription
// row is the source of truth.
type SubscriptionChangedEvent struct {
	TenantID   uint                  `json:"tenant_id"`
	SID        string                `json:"sid"`
	PlanCode   string                `json:"plan_code"`
	FromStatus vo.SubscriptionStatus `json:"from_status"`
	ToStatus   vo.SubscriptionStatus `json:"to_status"`
	Reason     string                `json:"reason"`
	OccurredAt time.Time             `json:"occurred_at"`
}

func NewSubscriptionChangedEvent(sub *Subscription, fromStatus vo.SubscriptionStatus, reason string, occurredAt time.Time) SubscriptionChangedEvent {
	return SubscriptionChangedEvent{
		TenantID:   sub.TenantID(),
		SID:        sub.SID(),
		PlanCode:   sub.PlanCode(),
		FromStatus: fromStatus,
		ToStatus:   sub.Status(),
		Reason:     reason,
		OccurredAt: occurredAt.UTC(),
	}
}
