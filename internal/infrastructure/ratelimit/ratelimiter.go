// Package ratelimit throttles billing-event ingestion. Payment providers
// retry aggressively after an outage on their side; the webhook surface
// absorbs the burst without letting one tenant's storm starve the rest.
package ratelimit

import (
	"context"
	"time"
)

// Policy caps requests per rolling window. A zero value disables that
// window.
type Policy struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// WebhookPolicy is the default cap for billing-event ingestion. The drain
// job applies at most a few hundred events per pass, so admitting more
// than this per source only grows the backlog.
var WebhookPolicy = Policy{
	PerMinute: 120,
	PerHour:   2000,
}

// Limiter answers whether a keyed request is within policy.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (bool, error)
	Remaining(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
