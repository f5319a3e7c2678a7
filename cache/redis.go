package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/queryops/observe"
)

// DefaultRedisPrefix namespaces every key written by RedisCache.
const DefaultRedisPrefix = "queryops:answer:"

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// Prefix is prepended to every key.
	// Default: DefaultRedisPrefix
	Prefix string

	// Logger receives backend failures, which Get reports as misses.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// RedisCache stores entries in Redis using native key expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger observe.Logger
}

// NewRedisCache connects to url and verifies the connection.
func NewRedisCache(ctx context.Context, url string, opts RedisOptions) (*RedisCache, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}

	c := NewRedisCacheFromClient(redis.NewClient(redisOpts), opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client without pinging it.
func NewRedisCacheFromClient(client *redis.Client, opts RedisOptions) *RedisCache {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	return &RedisCache{client: client, prefix: opts.Prefix, logger: opts.Logger}
}

// Get retrieves a value. Redis errors are logged and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.logger.Warn(ctx, "cache lookup failed", observe.Field{Key: "error", Value: err})
		return "", false
	}
	return value, true
}

// Set stores a value with Redis expiry ttl. TTL <= 0 means no caching.
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: store %q: %w", key, err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := c.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("cache: clear: %w", err)
		}
	}
	return nil
}

// Stats counts keys under the prefix. Redis expires keys itself, so Expired
// is always zero.
func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Backend: "redis", Entries: len(keys)}, nil
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cache: scan: %w", err)
	}
	return keys, nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
	_ Statser = (*RedisCache)(nil)
	_ Pinger  = (*RedisCache)(nil)
)
