// Package usecases provides application-level use cases for subscription
// lifecycle management, usage enforcement, access evaluation, and
// reconciliation auditing.
package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/biztime"
)

// Clock abstracts the time source so lifecycle decisions are testable and
// every component evaluates against the same instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return biztime.NowUTC()
}

// FixedClock always returns the same instant. Test use only.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant.UTC()
}

// SubscriptionChangeNotifier publishes committed lifecycle transitions to
// interested consumers. Implementations must tolerate being called for
// transitions they do not care about.
type SubscriptionChangeNotifier interface {
	NotifySubscriptionChanged(ctx context.Context, event billing.SubscriptionChangedEvent) error
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) NotifySubscriptionChanged(_ context.Context, _ billing.SubscriptionChangedEvent) error {
	return nil
}

// withConcurrencyRetry runs fn and, if it fails with
// billing.ErrConcurrentModification, runs it once more. fn must reload the
// aggregate itself so the retry operates on fresh state.
func withConcurrencyRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errors.Is(err, billing.ErrConcurrentModification) {
		return err
	}
	return fn(ctx)
}
