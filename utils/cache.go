package utils

import (
	"context"
	"fmt"
	"time"

	"bettermind/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheClient is the Redis client for the availability cache.
var CacheClient *redis.Client

// NewRedisClient returns a client for db on the configured Redis server and
// checks that it answers.
func NewRedisClient(ctx context.Context, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis db %d at %s: %w", db, config.AppConfig.RedisAddr, err)
	}
	return client, nil
}

// InitCache connects CacheClient to REDIS_CACHE_DB. The process exits if
// Redis is unreachable.
func InitCache() {
	client, err := NewRedisClient(context.Background(), config.AppConfig.RedisCacheDB)
	if err != nil {
		GetLogger().Fatal("cache unavailable", zap.Error(err))
	}
	CacheClient = client
}

// GetCacheClient returns CacheClient, connecting on first use.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
