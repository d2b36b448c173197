// Package store is the durable store adapter. It exposes the byte-level
// key-value contract consumed by the session cache, the daily-question cache
// and the leaderboard, and converts every backend failure into one of two
// sentinel errors so nothing above this package handles a client library
// error directly.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound marks a missing or expired key.
	ErrNotFound = errors.New("store: key not found")
	// ErrUnavailable marks any backend failure other than a miss. Callers
	// either degrade the feature or retry on a secondary backend.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// KV is the uniform contract over the primary key-value backend.
// All implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL writes value under key with the given expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent writes only when key does not exist and reports whether the
	// write happened. Used as an atomic claim for compute-once values.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// IncrementField atomically adds delta to a numeric field of the hash at
	// key and returns the new value.
	IncrementField(ctx context.Context, key, field string, delta int64) (int64, error)
	// Fields returns all fields of the hash at key. A missing hash yields an
	// empty map, not ErrNotFound.
	Fields(ctx context.Context, key string) (map[string]string, error)
	// ExpireIn sets or refreshes the expiry of key.
	ExpireIn(ctx context.Context, key string, ttl time.Duration) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}
