package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Limiter_Take(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()

	newFrozenLimiter := func(unixSeconds int64) (*Limiter, *time.Time) {
		now := time.Unix(unixSeconds, 0)
		l := NewLimiter(client)
		l.nowFunc = func() time.Time { return now }
		return l, &now
	}

	t.Run("returns an error for an invalid limit", func(t *testing.T) {
		l := NewLimiter(client)

		_, err := l.Take(ctx, "acme", Limit{})
		assert.EqualError(t, err, "invalid rate limit {ReplenishRate:0 BurstCapacity:0}")

		_, err = l.Take(ctx, "acme", Limit{ReplenishRate: 10})
		assert.EqualError(t, err, "invalid rate limit {ReplenishRate:10 BurstCapacity:0}")
	})

	t.Run("🎉 allows a full burst, then denies with a retry hint", func(t *testing.T) {
		l, _ := newFrozenLimiter(1710000000)
		limit := Limit{ReplenishRate: 10, BurstCapacity: 20}

		for i := 1; i <= 20; i++ {
			result, err := l.Take(ctx, "acme", limit)
			require.NoError(t, err)
			assert.Truef(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, 20-i, result.Remaining)
			assert.Zero(t, result.RetryAfter)
		}

		for i := 21; i <= 25; i++ {
			result, err := l.Take(ctx, "acme", limit)
			require.NoError(t, err)
			assert.Falsef(t, result.Allowed, "request %d should be denied", i)
			assert.Equal(t, 0, result.Remaining)
			assert.Equal(t, time.Second, result.RetryAfter)
		}
	})

	t.Run("🎉 refills ReplenishRate tokens per elapsed second", func(t *testing.T) {
		l, now := newFrozenLimiter(1710000100)
		limit := Limit{ReplenishRate: 10, BurstCapacity: 20}

		for i := 1; i <= 20; i++ {
			result, err := l.Take(ctx, "globex", limit)
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}
		result, err := l.Take(ctx, "globex", limit)
		require.NoError(t, err)
		require.False(t, result.Allowed)

		*now = now.Add(time.Second)

		result, err = l.Take(ctx, "globex", limit)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 9, result.Remaining)
	})

	t.Run("an idle bucket refills to capacity, never beyond", func(t *testing.T) {
		l, now := newFrozenLimiter(1710000200)
		limit := Limit{ReplenishRate: 10, BurstCapacity: 20}

		result, err := l.Take(ctx, "initech", limit)
		require.NoError(t, err)
		require.True(t, result.Allowed)
		require.Equal(t, 19, result.Remaining)

		*now = now.Add(time.Hour)

		result, err = l.Take(ctx, "initech", limit)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 19, result.Remaining)
	})

	t.Run("buckets are independent per key", func(t *testing.T) {
		l, _ := newFrozenLimiter(1710000300)
		limit := Limit{ReplenishRate: 1, BurstCapacity: 1}

		result, err := l.Take(ctx, "tenant-a", limit)
		require.NoError(t, err)
		require.True(t, result.Allowed)

		result, err = l.Take(ctx, "tenant-a", limit)
		require.NoError(t, err)
		assert.False(t, result.Allowed, "tenant-a's bucket is drained")

		result, err = l.Take(ctx, "tenant-b", limit)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "tenant-b's bucket is untouched")
	})

	t.Run("returns an error when the store is unreachable", func(t *testing.T) {
		downClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		defer downClient.Close()

		l := NewLimiter(downClient)
		_, err := l.Take(ctx, "acme", Limit{ReplenishRate: 1, BurstCapacity: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "running the token bucket script")
	})
}
