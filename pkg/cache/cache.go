// Package cache provides the response caches used by the request pipeline.
//
// Two capability shapes exist:
//   - Cache: blocking Get/Set, run to completion on the calling goroutine.
//   - AsyncCache: GetAsync/SetAsync hand back an async.Future and never hold a
//     thread lock while waiting.
//
// In-process variants (NewMemory, NewAsyncMemory) live here; the Redis-backed
// variants live in the redis subpackage. All backends expire entries lazily:
// a read that observes expiry evicts the entry and reports a miss.
package cache

import (
	"context"
	"time"

	"bingx/pkg/async"
)

// Payload is a decoded JSON response body. Numbers are json.Number so a payload
// read back from a remote cache is indistinguishable from one read off the wire.
// Every cache hands out its own copy, so callers may modify what they read.
type Payload = map[string]any

// Lookup is the result of a non-blocking read.
type Lookup struct {
	Value Payload
	Found bool
}

// Cache is a blocking key-value store with optional TTL.
type Cache interface {
	// Get returns the value stored under key. found is false when the key was
	// never set or has expired.
	Get(ctx context.Context, key string) (value Payload, found bool, err error)

	// Set stores value under key, overwriting any previous entry.
	// ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key string, value Payload, ttl time.Duration) error
}

// AsyncCache is the non-blocking counterpart of Cache.
type AsyncCache interface {
	GetAsync(ctx context.Context, key string) *async.Future[Lookup]
	SetAsync(ctx context.Context, key string, value Payload, ttl time.Duration) *async.Future[struct{}]
}

// Type names a backend variant in configuration.
type Type string

const (
	TypeSyncMemory  Type = "sync-memory"
	TypeAsyncMemory Type = "async-memory"
	TypeSyncRedis   Type = "sync-redis"
	TypeAsyncRedis  Type = "async-redis"
)

// Async reports whether the variant implements AsyncCache.
func (t Type) Async() bool {
	return t == TypeAsyncMemory || t == TypeAsyncRedis
}

// Valid reports whether t names a known backend.
func (t Type) Valid() bool {
	switch t {
	case TypeSyncMemory, TypeAsyncMemory, TypeSyncRedis, TypeAsyncRedis:
		return true
	default:
		return false
	}
}

// expiry converts a TTL into an absolute deadline; nil means never.
func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}
