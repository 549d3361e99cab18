package client

import (
	"strings"
	"time"

	"bingx/pkg/cache"
	"bingx/pkg/errors"
	"bingx/pkg/signer"
)

const (
	// ProductionURL is the live BingX REST endpoint.
	ProductionURL = "https://open-api.bingx.com"
	// DemoURL is the virtual-funds (VST) endpoint.
	DemoURL = "https://open-api-vst.bingx.com"

	// APIKeyHeader carries the API key on authenticated requests.
	APIKeyHeader = "X-BX-APIKEY"

	defaultCacheTTL    = 5 * time.Minute
	defaultHTTPTimeout = 10 * time.Second
)

// Mode selects the execution model of a client.
type Mode int

const (
	// ModeBlocking runs each call to completion on the calling goroutine.
	ModeBlocking Mode = iota
	// ModeAsync runs each call on its own goroutine and returns a future.
	ModeAsync
)

func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "blocking"
}

// ParseMode maps "blocking"/"sync" and "async" onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking", "sync":
		return ModeBlocking, nil
	case "async":
		return ModeAsync, nil
	default:
		return ModeBlocking, errors.Wrapf(errors.ErrConfiguration, "unknown client mode %q", s)
	}
}

// Config holds everything a client needs. It is read once by New.
type Config struct {
	APIKey string
	Secret string

	// DemoTrading selects DemoURL when BaseURL is empty.
	DemoTrading bool
	// BaseURL overrides both production and demo endpoints.
	BaseURL string

	Mode Mode

	// DefaultCacheTTL applies to every stored response. Defaults to 5 minutes.
	DefaultCacheTTL time.Duration
	// UnsafeCache allows UseCache on non-GET requests.
	UnsafeCache bool

	// At most one of Cache and AsyncCache may be set. A cache that does not
	// match Mode still works through a degraded path that emits a Diagnostic.
	Cache      cache.Cache
	AsyncCache cache.AsyncCache

	// HTTPTimeout bounds each round trip. Defaults to 10 seconds.
	HTTPTimeout time.Duration

	// SignFunc replaces the HMAC signing step for every request.
	SignFunc signer.Func

	// OnDiagnostic receives degraded-path notices in addition to the log.
	OnDiagnostic func(Diagnostic)
}

func (c *Config) applyDefaults() {
	if c.DefaultCacheTTL == 0 {
		c.DefaultCacheTTL = defaultCacheTTL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	c.BaseURL = strings.TrimRight(c.baseURL(), "/")
}

func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.DemoTrading {
		return DemoURL
	}
	return ProductionURL
}

func (c *Config) validate() error {
	if c.Mode != ModeBlocking && c.Mode != ModeAsync {
		return errors.Wrapf(errors.ErrConfiguration, "unknown client mode %d", c.Mode)
	}
	if c.Cache != nil && c.AsyncCache != nil {
		return errors.Wrap(errors.ErrConfiguration, "set at most one of Cache and AsyncCache")
	}
	if c.APIKey == "" && c.Secret != "" {
		return errors.Wrap(errors.ErrConfiguration, "api key required when secret provided")
	}
	return nil
}

// DiagnosticKind names a degraded-path condition.
type DiagnosticKind string

const (
	// DiagnosticCrossModeCache: the configured cache belongs to the other
	// execution mode, so each cache operation ran to completion synchronously.
	DiagnosticCrossModeCache DiagnosticKind = "cross_mode_cache"
	// DiagnosticCacheUnavailable: UseCache was requested but no cache is set.
	DiagnosticCacheUnavailable DiagnosticKind = "cache_unavailable"
)

// Diagnostic describes a call that completed through a degraded path.
type Diagnostic struct {
	Kind    DiagnosticKind
	Method  string
	Path    string
	Message string
}
