package redis

import (
	"context"
	"fmt"
	"time"
)

type counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// RateLimiter is a fixed-window counter: the first hit of a window sets the TTL.
type RateLimiter struct {
	client counter
	limit  int
	window time.Duration
}

func NewRateLimiter(client counter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window); err != nil {
			return false, err
		}
	}

	return count <= int64(r.limit), nil
}

func UtteranceKey(entryID, userID string) string {
	return fmt.Sprintf("rate_limit:%s:%s", entryID, userID)
}
