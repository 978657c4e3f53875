package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// ConnectTimeout bounds the initial connection attempt, including
	// backoff retries (default: 10 seconds).
	ConnectTimeout time.Duration
}

// RedisConfigFromEnv creates a RedisConfig from environment variables.
func RedisConfigFromEnv() RedisConfig {
	db, _ := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
}

// RedisBackend is a Redis implementation of Backend.
type RedisBackend struct {
	client *redis.Client
}

// ConnectRedis creates a Redis backend and verifies connectivity, retrying
// the initial ping with exponential backoff.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = 10 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	ping := func() error {
		return client.Ping(ctx).Err()
	}
	if err := backoff.Retry(ping, bo); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// NewRedisBackend wraps an existing Redis client. Intended for tests.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get returns the value for key, or ErrCacheMiss.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores value under key with the given TTL.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// DeletePattern removes all keys matching a glob pattern using SCAN so large
// keyspaces are not blocked by a KEYS call.
func (b *RedisBackend) DeletePattern(ctx context.Context, pattern string) error {
	iter := b.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %d keys: %w", len(keys), err)
	}
	return nil
}

// Ping verifies backend connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
