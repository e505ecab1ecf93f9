// Package ratelimit caps upstream completion calls per minute, keyed by
// provider and model. RPMLimiter shares its window through Redis;
// LocalLimiter keeps token buckets in process.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more call under key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// slidingWindowScript is an atomic sliding-window counter over a sorted set.
// KEYS[1] = Redis key
// ARGV[1] = current unix timestamp (nanoseconds)
// ARGV[2] = window size in nanoseconds
// ARGV[3] = limit (max calls per window)
// Returns: 1 if allowed, 0 if rate limited.
var slidingWindowScript = redis.NewScript(`
		local key    = KEYS[1]
		local now    = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local limit  = tonumber(ARGV[3])

		redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

		local count = redis.call('ZCARD', key)
		if count >= limit then
			return 0
		end

		local member = tostring(now) .. tostring(math.random(1, 1000000))
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, math.ceil(window / 1000000))
		return 1
`)

const keyPrefix = "agentkit:rpm:"

// RPMLimiter enforces rpmLimit calls per minute per key using a Redis
// sliding window, so several processes share one budget.
type RPMLimiter struct {
	rdb      *redis.Client
	rpmLimit int
	window   time.Duration
}

// NewRPMLimiter creates an RPMLimiter. rpmLimit must be > 0; values ≤ 0
// block every call.
func NewRPMLimiter(rdb *redis.Client, rpmLimit int) *RPMLimiter {
	return &RPMLimiter{rdb: rdb, rpmLimit: rpmLimit, window: time.Minute}
}

// Allow reports whether a call under key is within the limit. When Redis is
// unreachable the call is allowed.
func (r *RPMLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.rpmLimit <= 0 {
		return false, nil
	}

	result, err := slidingWindowScript.Run(ctx, r.rdb,
		[]string{keyPrefix + key},
		time.Now().UnixNano(), r.window.Nanoseconds(), r.rpmLimit,
	).Int()
	if err != nil {
		return true, nil
	}

	return result == 1, nil
}

// Key builds the limiter key of one provider/model pair.
func Key(provider, model string) string {
	return provider + ":" + model
}
