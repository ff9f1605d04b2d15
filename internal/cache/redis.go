package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/partner-finder/internal/logger"
)

// ErrEmptyRedisURL is returned when the redis backend is selected without a URL.
var ErrEmptyRedisURL = errors.New("redis url is required")

// connectionTimeout bounds the startup connection check.
const connectionTimeout = 5 * time.Second

// Redis is a Store backed by a Redis server. Misses and transport errors
// both read as cache misses; the cache is advisory.
type Redis struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedis connects to the given redis URL and verifies the connection.
func NewRedis(url string, log logger.Logger) (*Redis, error) {
	if url == "" {
		return nil, ErrEmptyRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, log: log}, nil
}

// Get returns the value for key, treating errors as misses.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis get failed", logger.String("key", key), logger.Error(err))
		}
		return "", false
	}
	return val, true
}

// Set stores value under key for the given TTL. Failures are logged and
// otherwise ignored.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn("redis set failed", logger.String("key", key), logger.Error(err))
	}
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
