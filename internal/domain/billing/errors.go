package billing

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrNoActiveSubscription    = errors.New("no active subscription")
	ErrSubscriptionNotUsable   = errors.New("subscription not usable")
	ErrUsageLimitExceeded      = errors.New("usage limit exceeded")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrConcurrentModification  = errors.New("concurrent modification")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPlanInactive            = errors.New("plan inactive")
	ErrPlanCodeExists          = errors.New("plan code already exists")
	ErrInvalidBillingCycle     = errors.New("invalid billing cycle")
	ErrTrialAlreadyUsed        = errors.New("trial already used")
	ErrTenantNotFound          = errors.New("tenant not found")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}

func ErrLimitExceeded(resource string, current, limit uint) error {
	return fmt.Errorf("%w: %s current=%d, limit=%d", ErrUsageLimitExceeded, resource, current, limit)
}

func ErrNotUsable(status string) error {
	return fmt.Errorf("%w: status is %s", ErrSubscriptionNotUsable, status)
}
