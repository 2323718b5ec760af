package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiterStore is a fixed-window limiter shared by every API
// instance. It satisfies echo's middleware.RateLimiterStore.
type RedisRateLimiterStore struct {
	Client  redis.Cmdable
	Prefix  string
	Max     int
	Window  time.Duration
	Timeout time.Duration
}

func NewRedisRateLimiterStore(client redis.Cmdable, prefix string, max int, window time.Duration) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		Client:  client,
		Prefix:  prefix,
		Max:     max,
		Window:  window,
		Timeout: 500 * time.Millisecond,
	}
}

func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	key := "ratelimit:" + s.Prefix + ":" + identifier
	// the window key is created with its ttl in the same transaction as the
	// increment, so no key can outlive its window
	var count *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, s.Window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return count.Val() <= int64(s.Max), nil
}
