package service

import (
	"context"
	"encoding/json"
	"fmt"
	"go-medstore-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileCacheTTL = 10 * time.Minute

// ICacheClient is the subset of the redis client used for cache-aside reads.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func profileCacheKey(userID int) string {
	return fmt.Sprintf("profile:%d", userID)
}

// cacheGet decodes a cached JSON value into dst. Misses and decode failures report false.
func cacheGet(ctx context.Context, c ICacheClient, key string, dst interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

func cacheSet(ctx context.Context, c ICacheClient, key string, value interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func cacheDel(ctx context.Context, c ICacheClient, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Del(ctx, keys...).Err(); err != nil {
		logger.Log.WithError(err).Warn("Cache invalidation failed")
	}
}
