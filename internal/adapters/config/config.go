package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"bingx/pkg/cache"
	"bingx/pkg/cache/redis"
	"bingx/pkg/client"
	"bingx/pkg/errors"
)

type Config struct {
	App           AppConfig
	BingX         BingXConfig
	Cache         CacheConfig
	Redis         RedisConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"bingx"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type BingXConfig struct {
	APIKey      string        `envconfig:"BINGX_API_KEY"`
	Secret      string        `envconfig:"BINGX_API_SECRET"`
	DemoTrading bool          `envconfig:"BINGX_DEMO_TRADING" default:"false"`
	BaseURL     string        `envconfig:"BINGX_BASE_URL"`
	HTTPTimeout time.Duration `envconfig:"BINGX_HTTP_TIMEOUT" default:"10s"`
	Mode        string        `envconfig:"BINGX_MODE" default:"blocking"` // blocking|async
}

type CacheConfig struct {
	Backend string        `envconfig:"CACHE_BACKEND" default:"none"` // none|memory|redis
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	Unsafe  bool          `envconfig:"CACHE_UNSAFE" default:"false"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. ":9090"
	Addr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if _, err := cfg.Cache.Type(cfg.BingX.Mode); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Type resolves the backend variant for the client mode. An empty type means
// caching is disabled.
func (c CacheConfig) Type(mode string) (cache.Type, error) {
	m, err := client.ParseMode(mode)
	if err != nil {
		return "", err
	}
	async := m == client.ModeAsync

	switch strings.ToLower(c.Backend) {
	case "", "none":
		return "", nil
	case "memory":
		if async {
			return cache.TypeAsyncMemory, nil
		}
		return cache.TypeSyncMemory, nil
	case "redis":
		if async {
			return cache.TypeAsyncRedis, nil
		}
		return cache.TypeSyncRedis, nil
	default:
		return "", errors.Wrapf(errors.ErrConfiguration, "unknown cache backend %q", c.Backend)
	}
}

// CacheBackend is a built cache. Exactly one of Cache and AsyncCache is set,
// or neither when caching is disabled.
type CacheBackend struct {
	Type       cache.Type
	Cache      cache.Cache
	AsyncCache cache.AsyncCache

	closer func() error
}

// Close releases remote connections. Safe on a zero backend.
func (b *CacheBackend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}

// BuildCache creates the backend of type t. Redis backends verify
// connectivity before returning.
func BuildCache(ctx context.Context, t cache.Type, rc RedisConfig) (*CacheBackend, error) {
	b := &CacheBackend{Type: t}
	redisCfg := redis.Config{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB}

	switch t {
	case "":
	case cache.TypeSyncMemory:
		b.Cache = cache.NewMemory()
	case cache.TypeAsyncMemory:
		b.AsyncCache = cache.NewAsyncMemory()
	case cache.TypeSyncRedis:
		c, err := redis.New(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		b.Cache, b.closer = c, c.Close
	case cache.TypeAsyncRedis:
		c, err := redis.NewAsync(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		b.AsyncCache, b.closer = c, c.Close
	default:
		return nil, errors.Wrapf(errors.ErrConfiguration, "unknown cache type %q", t)
	}
	return b, nil
}

// Build creates the cache backend selected by the loaded configuration.
func (c *Config) Build(ctx context.Context) (*CacheBackend, error) {
	t, err := c.Cache.Type(c.BingX.Mode)
	if err != nil {
		return nil, err
	}
	return BuildCache(ctx, t, c.Redis)
}

// ClientConfig maps the loaded settings onto a client configuration. The
// backend may be nil when caching is disabled.
func (c *Config) ClientConfig(backend *CacheBackend) (client.Config, error) {
	mode, err := client.ParseMode(c.BingX.Mode)
	if err != nil {
		return client.Config{}, err
	}

	cfg := client.Config{
		APIKey:          c.BingX.APIKey,
		Secret:          c.BingX.Secret,
		DemoTrading:     c.BingX.DemoTrading,
		BaseURL:         c.BingX.BaseURL,
		Mode:            mode,
		DefaultCacheTTL: c.Cache.TTL,
		UnsafeCache:     c.Cache.Unsafe,
		HTTPTimeout:     c.BingX.HTTPTimeout,
	}
	if backend != nil {
		cfg.Cache = backend.Cache
		cfg.AsyncCache = backend.AsyncCache
	}
	return cfg, nil
}
