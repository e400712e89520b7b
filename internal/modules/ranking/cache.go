// README: Trending list cache backed by Redis.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const trendingKey = "ranking:trending"

type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(redis *redis.Client) *RedisCache {
	return &RedisCache{redis: redis}
}

// Get reports a miss with ok=false and a nil error.
func (c *RedisCache) Get(ctx context.Context) ([]Driver, bool, error) {
	val, err := c.redis.Get(ctx, trendingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []Driver
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, drivers []Driver, ttl time.Duration) error {
	val, err := json.Marshal(drivers)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, trendingKey, val, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context) error {
	return c.redis.Del(ctx, trendingKey).Err()
}
