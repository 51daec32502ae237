package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// rateLimitScript counts issuances in a fixed window. It returns 0 when the
// request is allowed and the window's remaining lifetime in milliseconds
// when it is denied.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return redis.call("PTTL", KEYS[1])
end
return 0
`

// RedisLimiter is a fixed-window issuance limiter backed by Redis, shared
// across service instances. Unlike a best-effort HTTP limiter it fails
// closed: if Redis is unreachable the caller gets an error, never an allow.
type RedisLimiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	prefix    string
	script    *redis.Script
	opTimeout time.Duration
}

// NewRedisLimiter creates a limiter allowing limit requests per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) ports.RateLimiter {
	return &RedisLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		prefix:    "simorgh:ratelimit:",
		script:    redis.NewScript(rateLimitScript),
		opTimeout: 2 * time.Second,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds(), l.limit).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("%w: rate limit: %v", core.ErrStoreUnavailable, err)
	}
	if res > 0 {
		return false, time.Duration(res) * time.Millisecond, nil
	}
	return true, 0, nil
}
