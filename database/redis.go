package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const defaultRedisURL = "redis://redis:6379"

// NewRedis builds a client from a redis:// URL, falling back to the default
// address when the URL cannot be parsed. A failed ping is logged, not fatal:
// the cache is optional.
func NewRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		url = defaultRedisURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		zap.L().Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		opts = &redis.Options{Addr: "redis:6379", DB: 0}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("Redis not reachable, caching disabled until it is", zap.Error(err))
	}
	return client
}
