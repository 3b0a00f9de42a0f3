package valueobjects

// SubscriptionStatus is the closed set of tenant subscription states.
type SubscriptionStatus string

const (
	StatusPendingPayment SubscriptionStatus = "pending_payment"
	StatusTrial          SubscriptionStatus = "trial"
	StatusActive         SubscriptionStatus = "active"
	StatusPastDue        SubscriptionStatus = "past_due"
	StatusSuspended      SubscriptionStatus = "suspended"
	StatusCancelled      SubscriptionStatus = "cancelled"
	StatusExpired        SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// CanUseService reports whether the tenant has full access in this status.
func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive || s == StatusTrial
}

// CanAcceptPayment reports whether a successful payment in this status
// routes the subscription to active.
func (s SubscriptionStatus) CanAcceptPayment() bool {
	switch s {
	case StatusPendingPayment, StatusTrial, StatusActive, StatusPastDue, StatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo enforces the lifecycle state machine. Cancellation is
// reachable from every non-cancelled state; expired and cancelled are
// re-enterable via reactivation, so neither is absorbing.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	if target == StatusCancelled {
		return s != StatusCancelled
	}

	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusPendingPayment: {StatusActive, StatusTrial, StatusExpired},
		StatusTrial:          {StatusActive, StatusExpired},
		StatusActive:         {StatusPastDue, StatusSuspended, StatusExpired},
		StatusPastDue:        {StatusActive, StatusSuspended, StatusExpired},
		StatusSuspended:      {StatusActive, StatusExpired},
		StatusCancelled:      {StatusTrial, StatusActive, StatusPendingPayment},
		StatusExpired:        {StatusTrial, StatusActive, StatusPendingPayment},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusPendingPayment: true,
	StatusTrial:          true,
	StatusActive:         true,
	StatusPastDue:        true,
	StatusSuspended:      true,
	StatusCancelled:      true,
	StatusExpired:        true,
}
