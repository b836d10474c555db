package testsupport

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"coinpulse/internal/adapters/config"
	"coinpulse/internal/adapters/redis"
)

// NewRedisClient creates a redis client for integration tests and flushes the test database around the test.
func NewRedisClient(t *testing.T, cfg config.RedisConfig) *redis.Client {
	t.Helper()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})

	return redis.Wrap(rdb)
}

// NewTestRedis skips in -short mode and otherwise returns a client built from the environment
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	return NewRedisClient(t, LoadDatabaseConfigsFromEnv(t).Redis)
}
