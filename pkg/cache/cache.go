// Package cache defines the TTL key/value contract consumed by the cooldown
// and pending-reply engines. Expiry is owned entirely by the backing store;
// callers never poll for it.
package cache

import (
	"context"
	"time"
)

// TTLCache is the narrow cache surface the core depends on.
type TTLCache interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given expiry. A non-positive
	// expiry stores the key without expiration.
	Set(ctx context.Context, key string, value string, expiry time.Duration) error

	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// TTL returns the remaining lifetime of key. A zero or negative
	// duration means the key is absent or has no remaining lifetime.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
