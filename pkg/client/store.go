package client

import (
	"context"
	"time"

	"bingx/pkg/cache"
)

// store is the cache as seen by the pipeline. Both capability shapes are
// reduced to it; degraded reports whether the adapter crosses modes.
type store interface {
	get(ctx context.Context, key string) (cache.Payload, bool, error)
	set(ctx context.Context, key string, value cache.Payload, ttl time.Duration) error
	degraded() bool
}

type blockingStore struct {
	c     cache.Cache
	cross bool
}

func (s blockingStore) get(ctx context.Context, key string) (cache.Payload, bool, error) {
	return s.c.Get(ctx, key)
}

func (s blockingStore) set(ctx context.Context, key string, value cache.Payload, ttl time.Duration) error {
	return s.c.Set(ctx, key, value, ttl)
}

func (s blockingStore) degraded() bool { return s.cross }

type asyncStore struct {
	c     cache.AsyncCache
	cross bool
}

func (s asyncStore) get(ctx context.Context, key string) (cache.Payload, bool, error) {
	res, err := s.c.GetAsync(ctx, key).Await(ctx)
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Found, nil
}

func (s asyncStore) set(ctx context.Context, key string, value cache.Payload, ttl time.Duration) error {
	_, err := s.c.SetAsync(ctx, key, value, ttl).Await(ctx)
	return err
}

func (s asyncStore) degraded() bool { return s.cross }

func newStore(cfg Config) store {
	switch {
	case cfg.Cache != nil:
		return blockingStore{c: cfg.Cache, cross: cfg.Mode == ModeAsync}
	case cfg.AsyncCache != nil:
		return asyncStore{c: cfg.AsyncCache, cross: cfg.Mode == ModeBlocking}
	default:
		return nil
	}
}
