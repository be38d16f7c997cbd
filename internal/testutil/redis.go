package testutil

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// SetupRedis connects to the local test Redis and skips the test when it
// is not reachable.
func SetupRedis(t *testing.T) *redis.Client {
	cfg := Config().RedisConfig
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", cfg.Addr, err)
	}
	return client
}

func CleanupRedis(t *testing.T, client *redis.Client) {
	err := client.FlushDB(context.Background()).Err()
	if err != nil {
		t.Fatalf("client.FlushDB: %v", err)
	}
	client.Close()
}
