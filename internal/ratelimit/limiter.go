package ratelimit

import "context"

// RateLimiter decides whether one more request for key fits in the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
