package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dukapos:ratelimit"

// RedisLimiter is a sliding-window limiter on Redis sorted sets. Each
// request is a timestamped member; the window slides continuously, so a
// provider retry burst right at a minute boundary cannot double the
// admitted volume the way a fixed window would. Shared Redis makes the
// count correct across server instances.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Allow records the request and reports whether every configured window
// still has room. A request denied by one window is still counted in the
// others so repeated hammering never slips through on a shorter window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy) (bool, error) {
	now := time.Now()

	windows := []struct {
		duration time.Duration
		limit    int
	}{
		{time.Minute, policy.PerMinute},
		{time.Hour, policy.PerHour},
		{24 * time.Hour, policy.PerDay},
	}

	allowed := true
	for _, window := range windows {
		if window.limit <= 0 {
			continue
		}
		ok, err := l.admit(ctx, key, window.duration, window.limit, now)
		if err != nil {
			return false, err
		}
		if !ok {
			allowed = false
		}
	}
	return allowed, nil
}

func (l *RedisLimiter) admit(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (bool, error) {
	redisKey := l.windowKey(key, window)
	windowStart := now.Add(-window).UnixNano()
	nowNano := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	inWindow := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNano), Member: nowNano})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return inWindow.Val() < int64(limit), nil
}

// Remaining reports how many requests the key has used in the window.
func (l *RedisLimiter) Remaining(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := l.windowKey(key, window)
	windowStart := time.Now().Add(-window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	used := pipe.ZCard(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to read rate limit usage: %w", err)
	}
	return used.Val(), nil
}

// Reset clears every window for the key. Operator escape hatch after a
// legitimate provider replay was throttled.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, key)

	iter := l.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan rate limit keys: %w", err)
	}
	return nil
}

func (l *RedisLimiter) windowKey(key string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, key, window.String())
}
