package redis

import (
	"context"
	"fmt"
	"time"

	"remark-go/internal/config"
	"remark-go/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces every key the backend writes.
const KeyPrefix = "remark:"

const pingTimeout = 3 * time.Second

var client *redis.Client

// Init connects the shared client. The client is kept only when the server
// answers a ping, so callers can run without a cache on error.
func Init(cfg *config.RedisConfig) error {
	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("ping redis %s: %w", cfg.Addr(), err)
	}
	client = c

	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.Duration("user_ttl", cfg.UserTTLDuration()),
	)
	return nil
}

// SharedCache returns a JSON cache over the shared client. Call it only
// after Init succeeded.
func SharedCache() *Cache {
	return NewCache(client, KeyPrefix)
}

func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	logger.Info("Redis connection closed")
	return err
}
