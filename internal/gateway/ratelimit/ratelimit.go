package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills a token bucket and takes one token in a single
// atomic step. KEYS[1] holds the remaining tokens, KEYS[2] the unix second of
// the last refill. Both keys expire once an idle bucket would have refilled
// to capacity, so abandoned buckets leave no state behind.
var tokenBucketScript = redis.NewScript(`
local tokens_key = KEYS[1]
local timestamp_key = KEYS[2]

local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local fill_time = capacity / rate
local ttl = math.floor(fill_time * 2)
if ttl < 1 then
  ttl = 1
end

local last_tokens = tonumber(redis.call("get", tokens_key))
if last_tokens == nil then
  last_tokens = capacity
end

local last_refreshed = tonumber(redis.call("get", timestamp_key))
if last_refreshed == nil then
  last_refreshed = 0
end

local delta = math.max(0, now - last_refreshed)
local filled_tokens = math.min(capacity, last_tokens + (delta * rate))
local allowed_num = 0
local new_tokens = filled_tokens
if filled_tokens >= requested then
  new_tokens = filled_tokens - requested
  allowed_num = 1
end

redis.call("setex", tokens_key, ttl, new_tokens)
redis.call("setex", timestamp_key, ttl, now)

return { allowed_num, new_tokens }
`)

// Limit describes a token-bucket policy: the bucket holds at most
// BurstCapacity tokens and gains ReplenishRate tokens per second.
type Limit struct {
	ReplenishRate int
	BurstCapacity int
}

// Result is the outcome of taking one token.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the caller should wait for the next token. Only
	// set when the take was denied.
	RetryAfter time.Duration
}

// Limiter is a token-bucket rate limiter on a shared Redis store, so every
// gateway replica drains the same budget. Refill-and-take runs as one Lua
// script and is therefore atomic per bucket.
type Limiter struct {
	client  redis.UniversalClient
	nowFunc func() time.Time
}

func NewLimiter(client redis.UniversalClient) *Limiter {
	return NewLimiterWithClock(client, time.Now)
}

// NewLimiterWithClock is NewLimiter with an injectable clock, so tests can
// refill buckets without sleeping.
func NewLimiterWithClock(client redis.UniversalClient, nowFunc func() time.Time) *Limiter {
	return &Limiter{
		client:  client,
		nowFunc: nowFunc,
	}
}

// Take removes one token from the bucket identified by key, refilling it
// first according to the elapsed time since the last take.
func (l *Limiter) Take(ctx context.Context, key string, limit Limit) (Result, error) {
	if limit.ReplenishRate <= 0 || limit.BurstCapacity <= 0 {
		return Result{}, fmt.Errorf("invalid rate limit %+v", limit)
	}

	// Hash tags keep both keys of a bucket in the same cluster slot.
	keys := []string{
		fmt.Sprintf("request_rate_limiter.{%s}.tokens", key),
		fmt.Sprintf("request_rate_limiter.{%s}.timestamp", key),
	}
	values, err := tokenBucketScript.Run(ctx, l.client, keys, limit.ReplenishRate, limit.BurstCapacity, l.nowFunc().Unix(), 1).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("running the token bucket script: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("unexpected token bucket reply of length %d", len(values))
	}

	result := Result{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
	}
	if !result.Allowed {
		// The bucket refills on unix-second boundaries, so one second from
		// now it gains ReplenishRate fresh tokens.
		result.RetryAfter = time.Second
	}
	return result, nil
}
