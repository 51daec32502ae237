package ports

import (
	"context"
	"time"
)

// RateLimiter caps OTP issuance per phone within a fixed window. When a
// request is denied, retryAfter is the time until the window resets.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
