// Package pubsub distributes committed subscription changes to other
// service instances over Redis Pub/Sub. Access caches on POS nodes listen
// here so a payment or suspension takes effect without a restart.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dukapos/dukapos/internal/domain/billing"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// SubscriptionChangeHandler is a callback function for handling subscription change events
type SubscriptionChangeHandler func(ctx context.Context, event billing.SubscriptionChangedEvent)

// SubscriptionChangeSubscriber defines the interface for subscribing to subscription changes
type SubscriptionChangeSubscriber interface {
	Subscribe(ctx context.Context, handler SubscriptionChangeHandler) error
}

const subscriptionChangeChannel = "dukapos:subscription:change"

// RedisSubscriptionChangeBus publishes and consumes subscription change
// events over Redis Pub/Sub. It satisfies the application layer's
// SubscriptionChangeNotifier on the publish side.
type RedisSubscriptionChangeBus struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisSubscriptionChangeBus creates a new Redis-based subscription change bus
func NewRedisSubscriptionChangeBus(client *redis.Client, logger logger.Interface) *RedisSubscriptionChangeBus {
	return &RedisSubscriptionChangeBus{
		client: client,
		logger: logger,
	}
}

// NotifySubscriptionChanged publishes a committed lifecycle transition.
// Publish failures are logged and swallowed: the subscription row is the
// source of truth and consumers converge on the next read.
func (b *RedisSubscriptionChangeBus) NotifySubscriptionChanged(ctx context.Context, event billing.SubscriptionChangedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, subscriptionChangeChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish subscription change event",
			"tenant_id", event.TenantID,
			"sid", event.SID,
			"from_status", event.FromStatus,
			"to_status", event.ToStatus,
			"error", err,
		)
		return nil
	}

	b.logger.Debugw("subscription change event published",
		"tenant_id", event.TenantID,
		"sid", event.SID,
		"from_status", event.FromStatus,
		"to_status", event.ToStatus,
		"reason", event.Reason,
	)
	return nil
}

// Subscribe subscribes to subscription change events and calls the handler for each event
func (b *RedisSubscriptionChangeBus) Subscribe(ctx context.Context, handler SubscriptionChangeHandler) error {
	pubsub := b.client.Subscribe(ctx, subscriptionChangeChannel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	_, err := pubsub.Receive(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to subscription change events",
		"channel", subscriptionChangeChannel,
	)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("subscription change subscriber stopped",
				"reason", ctx.Err(),
			)
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("subscription change channel closed")
				return nil
			}

			var event billing.SubscriptionChangedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal subscription change event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}

			// Handle event in background goroutine to avoid blocking the event loop
			go handler(context.Background(), event)
		}
	}
}
