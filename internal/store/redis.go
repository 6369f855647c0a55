package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// IncrTally bumps the per-day counter for a scan outcome. Keys expire after
// 40 days so stale tallies clean themselves up.
func (r *Redis) IncrTally(ctx context.Context, day, outcome string) error {
	key := fmt.Sprintf("attendance:tally:%s:%s", day, outcome)
	if err := r.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, 40*24*time.Hour).Err()
}

// Tally reads the per-day counter for a scan outcome.
func (r *Redis) Tally(ctx context.Context, day, outcome string) (int64, error) {
	key := fmt.Sprintf("attendance:tally:%s:%s", day, outcome)
	n, err := r.Client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
