package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"bingx/internal/metrics"
	"bingx/pkg/async"
)

// entry is one cached value; expiresAt nil means no expiration.
type entry struct {
	value     Payload
	expiresAt *time.Time
}

func (e entry) expired(now time.Time) bool {
	return e.expiresAt != nil && now.After(*e.expiresAt)
}

// Option configures an in-process cache.
type Option func(*options)

type options struct {
	now  func() time.Time
	name string
}

// WithClock sets the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithName sets the backend label reported in metrics.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

func applyOptions(defaultName string, opts []Option) options {
	o := options{now: time.Now, name: defaultName}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// store is the map shared by both in-process caches. Callers hold the owning
// cache's lock around every method.
type store struct {
	items map[string]entry
	opts  options
}

func newStore(opts options) store {
	return store{items: make(map[string]entry), opts: opts}
}

func (s *store) get(key string) (Payload, bool) {
	e, ok := s.items[key]
	if !ok {
		metrics.RecordCacheLookup(s.opts.name, "miss")
		return nil, false
	}
	if e.expired(s.opts.now()) {
		delete(s.items, key)
		metrics.RecordCacheLookup(s.opts.name, "expired")
		return nil, false
	}
	metrics.RecordCacheLookup(s.opts.name, "hit")
	return clonePayload(e.value), true
}

func (s *store) set(key string, value Payload, ttl time.Duration) {
	s.items[key] = entry{value: clonePayload(value), expiresAt: expiry(s.opts.now(), ttl)}
	metrics.RecordCacheWrite(s.opts.name, nil)
}

// Memory is the blocking in-process cache. A mutex makes the
// read-check-evict-return sequence atomic with respect to writers.
type Memory struct {
	mu sync.Mutex
	s  store
}

// NewMemory creates an empty blocking in-process cache.
func NewMemory(opts ...Option) *Memory {
	return &Memory{s: newStore(applyOptions(string(TypeSyncMemory), opts))}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (Payload, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.s.get(key)
	return v, ok, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value Payload, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.set(key, value, ttl)
	return nil
}

// Len returns the number of stored entries, including ones not yet known to be expired.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.s.items)
}

// AsyncMemory is the non-blocking in-process cache. Exclusion is a weighted
// semaphore whose acquisition is a suspension point honouring ctx, so a
// waiting caller never pins a thread and can give up on cancellation.
type AsyncMemory struct {
	sem *semaphore.Weighted
	s   store
}

// NewAsyncMemory creates an empty non-blocking in-process cache.
func NewAsyncMemory(opts ...Option) *AsyncMemory {
	return &AsyncMemory{
		sem: semaphore.NewWeighted(1),
		s:   newStore(applyOptions(string(TypeAsyncMemory), opts)),
	}
}

// GetAsync implements AsyncCache.
func (m *AsyncMemory) GetAsync(ctx context.Context, key string) *async.Future[Lookup] {
	return async.Go(ctx, func(ctx context.Context) (Lookup, error) {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return Lookup{}, err
		}
		defer m.sem.Release(1)

		v, ok := m.s.get(key)
		return Lookup{Value: v, Found: ok}, nil
	})
}

// SetAsync implements AsyncCache.
func (m *AsyncMemory) SetAsync(ctx context.Context, key string, value Payload, ttl time.Duration) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		if err := m.sem.Acquire(ctx, 1); err != nil {
			return struct{}{}, err
		}
		defer m.sem.Release(1)

		m.s.set(key, value, ttl)
		return struct{}{}, nil
	})
}

// clonePayload deep-copies the maps and slices of a decoded JSON payload so a
// caller mutating its result cannot change what other callers read.
func clonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	return cloneValue(p).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
