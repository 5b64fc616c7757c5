// Package cache stores rendered artifacts keyed by a hash of the render request.
//
// Every renderer in this service is deterministic, so a request that has been
// rendered once can be answered from cache on every later call. Backends:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: local directory, used by the CLI and single-node deployments
//   - [RedisCache]: shared cache for horizontally scaled deployments
//   - [MongoCache]: shared cache with a server-side TTL index
//
// Keys come from a [Keyer] so callers never hand-build key strings.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get returns (nil, false, nil) on a miss. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
