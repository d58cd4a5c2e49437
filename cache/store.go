package cache

import (
	"context"
	"time"
)

// Store is a generic key/value store with per-entry TTL. It backs the
// client-credentials and auth-setting records.
//
// Absence (missing or expired key) is reported through the boolean return,
// never as an error; a non-nil error always indicates a backend failure
// (I/O, connection) and must propagate to the caller.
type Store interface {
	// Set stores value under key, evicting it after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value stored under key, or ok=false when the key is
	// missing or has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
