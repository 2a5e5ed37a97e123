package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mannco-trade/mannbot/internal/domain"
)

// RateLimiter implements domain.RateLimiter with a sliding window over a
// Redis sorted set. Each request is a member scored by its microsecond
// timestamp; members older than the window are pruned before counting.
type RateLimiter struct {
	rdb *redis.Client
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying()}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow reports whether a request under key fits the sliding window,
// counting it when it does. The prune and count run in one transaction; the
// count is recorded only when under the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rkey := rateLimitKey(key)
	now := time.Now().UnixMicro()
	cutoff := now - window.Microseconds()

	var card *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff, 10))
		card = pipe.ZCard(ctx, rkey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}

	if card.Val() >= int64(limit) {
		return false, nil
	}

	_, err = rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, rkey, redis.Z{
			Score:  float64(now),
			Member: strconv.FormatInt(now, 10),
		})
		pipe.Expire(ctx, rkey, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: rate limit record %s: %w", key, err)
	}

	return true, nil
}
