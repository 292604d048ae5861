package shared

import (
	"context"
	"time"
)

// LockStore grants short-lived exclusive keys. It guards remote operations
// that must not run twice concurrently, such as emitting the same invoice.
type LockStore interface {
	// Acquire returns true if the key was free and is now held until ttl expires.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the key before its ttl.
	Release(ctx context.Context, key string) error
	Close() error
}
