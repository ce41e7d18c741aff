// Package cache provides byte-level caches (Redis and in-process) with JSON
// helpers for typed values.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// ErrMiss is returned by Cache.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a key/value store with expiring entries and glob deletion.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// DelPrefix deletes every key starting with prefix (e.g. "mythvault:titles:").
	DelPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Get fetches key and JSON-unmarshals the value.
// Returns ErrMiss when the key does not exist.
func Get[T any](ctx context.Context, c Cache, key string) (T, error) {
	var zero T
	raw, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return v, nil
}

// Set JSON-marshals v and stores it under key with the given TTL.
func Set(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
