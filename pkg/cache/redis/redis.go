// Package redis provides the remote response caches backed by Redis.
// Values are stored as JSON text and expire through Redis' native SET ... EX.
package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bingx/internal/metrics"
	"bingx/pkg/async"
	"bingx/pkg/cache"
	"bingx/pkg/errors"
)

// Config holds the connection settings of a remote cache.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// commander is the subset of the go-redis client the caches use.
type commander interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

// Cache is the blocking Redis cache.
type Cache struct {
	rdb  commander
	name string
}

// New connects to Redis and returns a blocking cache. The connection is
// verified with PING before returning.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	rdb, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{rdb: rdb, name: string(cache.TypeSyncRedis)}, nil
}

// NewFromClient wraps an existing go-redis client. Close releases it.
func NewFromClient(rdb *goredis.Client) *Cache {
	return &Cache{rdb: rdb, name: string(cache.TypeSyncRedis)}
}

// Get implements cache.Cache.
func (c *Cache) Get(ctx context.Context, key string) (cache.Payload, bool, error) {
	return get(ctx, c.rdb, c.name, key)
}

// Set implements cache.Cache.
func (c *Cache) Set(ctx context.Context, key string, value cache.Payload, ttl time.Duration) error {
	return set(ctx, c.rdb, c.name, key, value, ttl)
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// AsyncCache is the non-blocking Redis cache. Every command runs on its own
// goroutine and completes through a future.
type AsyncCache struct {
	rdb  commander
	name string
}

// NewAsync connects to Redis and returns a non-blocking cache.
func NewAsync(ctx context.Context, cfg Config) (*AsyncCache, error) {
	rdb, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &AsyncCache{rdb: rdb, name: string(cache.TypeAsyncRedis)}, nil
}

// NewAsyncFromClient wraps an existing go-redis client. Close releases it.
func NewAsyncFromClient(rdb *goredis.Client) *AsyncCache {
	return &AsyncCache{rdb: rdb, name: string(cache.TypeAsyncRedis)}
}

// GetAsync implements cache.AsyncCache.
func (c *AsyncCache) GetAsync(ctx context.Context, key string) *async.Future[cache.Lookup] {
	return async.Go(ctx, func(ctx context.Context) (cache.Lookup, error) {
		v, ok, err := get(ctx, c.rdb, c.name, key)
		return cache.Lookup{Value: v, Found: ok}, err
	})
}

// SetAsync implements cache.AsyncCache.
func (c *AsyncCache) SetAsync(ctx context.Context, key string, value cache.Payload, ttl time.Duration) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, set(ctx, c.rdb, c.name, key, value, ttl)
	})
}

// Close releases the Redis connection.
func (c *AsyncCache) Close() error {
	return c.rdb.Close()
}

func connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(errors.ErrUnavailable, "redis ping %s: %v", cfg.Addr, err)
	}
	return rdb, nil
}

func get(ctx context.Context, rdb commander, name, key string) (cache.Payload, bool, error) {
	data, err := rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		metrics.RecordCacheLookup(name, "miss")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheLookup(name, "error")
		return nil, false, errors.Wrapf(err, "failed to get cache entry from redis: key=%s", key)
	}

	payload, err := decode(data)
	if err != nil {
		metrics.RecordCacheLookup(name, "error")
		return nil, false, errors.Wrapf(err, "failed to decode cache entry: key=%s", key)
	}

	metrics.RecordCacheLookup(name, "hit")
	return payload, true, nil
}

func set(ctx context.Context, rdb commander, name, key string, value cache.Payload, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode cache entry: key=%s", key)
	}

	// A zero expiration is a plain SET; a positive one becomes SET ... EX/PX.
	if ttl < 0 {
		ttl = 0
	}

	err = rdb.Set(ctx, key, data, ttl).Err()
	metrics.RecordCacheWrite(name, err)
	if err != nil {
		return errors.Wrapf(err, "failed to save cache entry to redis: key=%s", key)
	}
	return nil
}

func decode(data []byte) (cache.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload cache.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("cache entry is not a JSON object")
	}
	return payload, nil
}
