// Package ratelimit enforces per-user daily usage quotas backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitExceededError is returned when a user has used up their quota for the
// current window.
type LimitExceededError struct {
	Limit int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("usage limit of %d requests exceeded", e.Limit)
}

// Limiter counts requests per user in fixed windows.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow records one request for userID and reports whether it fits the
// quota. A limit of zero or below disables the check entirely.
func (l *Limiter) Allow(ctx context.Context, userID string) error {
	if l.limit <= 0 {
		return nil
	}

	key := fmt.Sprintf("usage:%s", userID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("usage counter increment failed: %w", err)
	}

	// First hit in the window sets the expiry
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("usage counter expire failed: %w", err)
		}
	}

	if count > int64(l.limit) {
		return &LimitExceededError{Limit: l.limit}
	}
	return nil
}

// Remaining returns how many requests the user has left in the window.
func (l *Limiter) Remaining(ctx context.Context, userID string) (int, error) {
	if l.limit <= 0 {
		return 0, nil
	}

	key := fmt.Sprintf("usage:%s", userID)
	count, err := l.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return l.limit, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
