package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingx/pkg/cache"
)

// fakeRedis records SET calls and serves GETs from memory.
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	closed int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func TestCacheRoundTripUsesJSON(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := &Cache{rdb: fake, name: "test"}

	payload := cache.Payload{"code": 0, "data": map[string]any{"price": "65000.1"}}
	require.NoError(t, c.Set(ctx, "k", payload, 30*time.Second))

	assert.JSONEq(t, `{"code":0,"data":{"price":"65000.1"}}`, fake.data["k"])
	assert.Equal(t, 30*time.Second, fake.ttls["k"])

	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0", fmt.Sprint(got["code"]))
	assert.Equal(t, map[string]any{"price": "65000.1"}, got["data"])
}

func TestCacheMiss(t *testing.T) {
	c := &Cache{rdb: newFakeRedis(), name: "test"}

	_, found, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheNoTTLIsPlainSet(t *testing.T) {
	fake := newFakeRedis()
	c := &Cache{rdb: fake, name: "test"}

	require.NoError(t, c.Set(context.Background(), "k", cache.Payload{"a": 1}, 0))
	assert.Equal(t, time.Duration(0), fake.ttls["k"])

	require.NoError(t, c.Set(context.Background(), "k", cache.Payload{"a": 1}, -time.Second))
	assert.Equal(t, time.Duration(0), fake.ttls["k"])
}

func TestCacheGetErrorPropagates(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection reset")
	c := &Cache{rdb: fake, name: "test"}

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCacheCorruptEntry(t *testing.T) {
	fake := newFakeRedis()
	fake.data["k"] = "not json"
	c := &Cache{rdb: fake, name: "test"}

	_, found, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, found)
}

func TestAsyncCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := &AsyncCache{rdb: fake, name: "test"}

	res, err := c.GetAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = c.SetAsync(ctx, "k", cache.Payload{"msg": "ok"}, time.Minute).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, fake.ttls["k"])

	res, err = c.GetAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "ok", res.Value["msg"])

	require.NoError(t, c.Close())
	assert.Equal(t, 1, fake.closed)
}

func TestLiveRedisExpiry(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("integration environment missing, set REDIS_HOST to run")
	}

	ctx := context.Background()
	c, err := New(ctx, Config{Addr: host + ":6379"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "bingx:test:ttl", cache.Payload{"v": 1}, time.Second))

	_, found, err := c.Get(ctx, "bingx:test:ttl")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(1100 * time.Millisecond)

	_, found, err = c.Get(ctx, "bingx:test:ttl")
	require.NoError(t, err)
	assert.False(t, found)
}
