package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingx/pkg/cache"
	"bingx/pkg/client"
	"bingx/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bingx", cfg.App.Name)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.BingX.HTTPTimeout)
	assert.False(t, cfg.ErrorTracking.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BINGX_API_KEY", "key")
	t.Setenv("BINGX_API_SECRET", "secret")
	t.Setenv("BINGX_DEMO_TRADING", "true")
	t.Setenv("BINGX_MODE", "async")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_UNSAFE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	backend, err := cfg.Build(context.Background())
	require.NoError(t, err)
	defer backend.Close()
	assert.Equal(t, cache.TypeAsyncMemory, backend.Type)
	assert.NotNil(t, backend.AsyncCache)
	assert.Nil(t, backend.Cache)

	cc, err := cfg.ClientConfig(backend)
	require.NoError(t, err)
	assert.Equal(t, "key", cc.APIKey)
	assert.Equal(t, "secret", cc.Secret)
	assert.True(t, cc.DemoTrading)
	assert.Equal(t, client.ModeAsync, cc.Mode)
	assert.Equal(t, 30*time.Second, cc.DefaultCacheTTL)
	assert.True(t, cc.UnsafeCache)
	assert.NotNil(t, cc.AsyncCache)

	_, err = client.New(cc)
	require.NoError(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := Load()
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestCacheType(t *testing.T) {
	tests := []struct {
		backend string
		mode    string
		want    cache.Type
	}{
		{"none", "blocking", ""},
		{"", "async", ""},
		{"memory", "blocking", cache.TypeSyncMemory},
		{"memory", "async", cache.TypeAsyncMemory},
		{"redis", "sync", cache.TypeSyncRedis},
		{"REDIS", "async", cache.TypeAsyncRedis},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.mode, func(t *testing.T) {
			got, err := CacheConfig{Backend: tt.backend}.Type(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CacheConfig{Backend: "memory"}.Type("threads")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestBuildCache(t *testing.T) {
	ctx := context.Background()

	b, err := BuildCache(ctx, "", RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, b.Cache)
	assert.Nil(t, b.AsyncCache)
	assert.NoError(t, b.Close())

	b, err = BuildCache(ctx, cache.TypeSyncMemory, RedisConfig{})
	require.NoError(t, err)
	assert.NotNil(t, b.Cache)

	_, err = BuildCache(ctx, cache.Type("disk"), RedisConfig{})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestBuildCacheRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := BuildCache(ctx, cache.TypeSyncRedis, RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestClientConfigWithoutBackend(t *testing.T) {
	cfg := &Config{BingX: BingXConfig{Mode: "blocking"}, Cache: CacheConfig{TTL: time.Minute}}

	cc, err := cfg.ClientConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, cc.Cache)
	assert.Nil(t, cc.AsyncCache)
	assert.Equal(t, client.ModeBlocking, cc.Mode)
}
