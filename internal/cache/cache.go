// Package cache provides a TTL'd byte store with memory and Redis backends.
package cache

import (
	"context"
	"time"
)

// Store is the cache contract. A Get on a missing or expired key returns
// found=false with a nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
