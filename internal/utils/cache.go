package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel comparison
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// JSONCache stores JSON documents in Redis under a common key prefix
type JSONCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewJSONCache returns a cache whose keys all start with prefix
func NewJSONCache(rdb redis.UniversalClient, prefix string) *JSONCache {
	return &JSONCache{rdb: rdb, prefix: prefix}
}

// Key returns the full Redis key for key
func (c *JSONCache) Key(key string) string {
	return c.prefix + key
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *JSONCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value in Redis with a specified TTL
func (c *JSONCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.Key(key), b, ttl).Err()
}

// Delete removes a key from Redis
func (c *JSONCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.Key(key)).Err()
}
