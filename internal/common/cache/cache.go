package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService is a thin JSON cache on top of Redis. A nil *CacheService is
// valid and behaves as an always-miss cache, so callers never need to branch
// on whether Redis is deployed.
type CacheService struct {
	redisClient *redis.Client
}

func NewCacheService(redisClient *redis.Client) *CacheService {
	if redisClient == nil {
		return nil
	}
	return &CacheService{
		redisClient: redisClient,
	}
}

var ErrMiss = redis.Nil

// Get reads key into dest.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrMiss
	}

	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set stores value under key with a TTL.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

// Delete removes key.
func (c *CacheService) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.redisClient.Del(ctx, keys...).Err()
}
