// Package cache memoizes clustering results in a key-value store.
//
// The cache is advisory: results are derived, re-derivable data. Every backend
// failure degrades to a recompute and is never surfaced to the caller.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the key is not present in the backend.
var ErrCacheMiss = errors.New("cache miss")

// Backend is the minimal key-value contract the gateway needs. Any store
// supporting GET/SET-with-TTL/pattern-DEL is substitutable.
type Backend interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// DeletePattern removes all keys matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) error

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
