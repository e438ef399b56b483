// Package cache provides the byte-oriented stores behind the order query cache.
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry expiry. Get reports a miss with
// ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
