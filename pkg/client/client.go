// Package client implements the authenticated BingX request pipeline.
//
// Every call goes through the same steps in order: caching-misuse gate, sign,
// optional cache lookup, transport, error classification and optional cache
// store. A Client runs in exactly one Mode; Execute serves ModeBlocking and
// ExecuteAsync serves ModeAsync.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bingx/pkg/async"
	"bingx/pkg/cache"
	"bingx/pkg/errors"
	"bingx/pkg/logger"
	"bingx/pkg/signer"
	"bingx/pkg/transport"
)

var (
	// ErrUnsafeCache is returned when UseCache is set on a non-GET request and
	// Config.UnsafeCache is off. Nothing is signed or sent.
	ErrUnsafeCache = errors.Wrap(errors.ErrConfiguration,
		"cache is supported only for GET requests, enable UnsafeCache to cache other methods")

	// ErrModeMismatch is returned when the entry point does not match the client's mode.
	ErrModeMismatch = errors.Wrap(errors.ErrConfiguration, "entry point does not match client mode")
)

// Request describes one call. It is never mutated by the pipeline.
type Request struct {
	Method string
	Path   string
	Params signer.Params

	// Headers are sent in addition to the API key header.
	Headers map[string]string

	UseCache bool
	// CacheDiscriminator separates cache entries of otherwise identical
	// requests, e.g. per account.
	CacheDiscriminator string

	// SignFunc overrides the client's signing function for this call only.
	SignFunc signer.Func
}

// Option configures a Client beyond Config.
type Option func(*Client)

// WithLogger sets the logger used by the pipeline and its session.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client is safe for concurrent use once opened.
type Client struct {
	cfg    Config
	log    *logger.Logger
	now    func() time.Time
	signer *signer.Signer
	store  store

	session      *transport.Session
	asyncSession *transport.AsyncSession
}

// New validates cfg and builds an unopened client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	c := &Client{
		cfg: cfg,
		log: logger.Get(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Component("bingx_client").With("mode", cfg.Mode.String())

	c.signer = signer.New(cfg.Secret, signer.WithOverride(cfg.SignFunc), signer.WithClock(c.now))
	c.store = newStore(cfg)

	sessionOpts := []transport.Option{
		transport.WithTimeout(cfg.HTTPTimeout),
		transport.WithLogger(c.log),
	}
	if cfg.Mode == ModeAsync {
		c.asyncSession = transport.NewAsyncSession(sessionOpts...)
	} else {
		c.session = transport.NewSession(sessionOpts...)
	}

	return c, nil
}

// Mode returns the execution mode fixed at construction.
func (c *Client) Mode() Mode {
	return c.cfg.Mode
}

// BaseURL returns the resolved endpoint root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Open opens the client's session.
func (c *Client) Open() error {
	c.log.Debug("opening session")
	if c.asyncSession != nil {
		return c.asyncSession.Open()
	}
	return c.session.Open()
}

// Close closes the client's session. The cache is not owned by the client
// and stays open. Closing twice is harmless.
func (c *Client) Close() error {
	c.log.Debug("closing session")
	if c.asyncSession != nil {
		return c.asyncSession.Close()
	}
	return c.session.Close()
}

// State reports the session state.
func (c *Client) State() transport.State {
	if c.asyncSession != nil {
		return c.asyncSession.State()
	}
	return c.session.State()
}

// Within opens c, runs fn and closes c on every exit path.
func Within(ctx context.Context, c *Client, fn func(ctx context.Context, c *Client) error) error {
	return transport.Within(c, func() error {
		return fn(ctx, c)
	})
}

// Execute runs req to completion. Blocking mode only. The returned payload
// belongs to the caller; a cache hit is a copy of the stored entry.
func (c *Client) Execute(ctx context.Context, req Request) (cache.Payload, error) {
	if c.cfg.Mode != ModeBlocking {
		return nil, errors.Wrapf(ErrModeMismatch, "Execute called on %s client", c.cfg.Mode)
	}
	return c.run(ctx, req, c.session.Do)
}

// ExecuteAsync starts req and returns its pending result. Async mode only.
func (c *Client) ExecuteAsync(ctx context.Context, req Request) *async.Future[cache.Payload] {
	if c.cfg.Mode != ModeAsync {
		return async.Resolved[cache.Payload](nil,
			errors.Wrapf(ErrModeMismatch, "ExecuteAsync called on %s client", c.cfg.Mode))
	}

	do := func(ctx context.Context, method, rawURL string, headers map[string]string) (map[string]any, error) {
		return c.asyncSession.DoAsync(ctx, method, rawURL, headers).Await(ctx)
	}
	return async.Go(ctx, func(ctx context.Context) (cache.Payload, error) {
		return c.run(ctx, req, do)
	})
}

// CallOption adjusts a Request built by the verb helpers.
type CallOption func(*Request)

// Cached enables response caching for the call.
func Cached() CallOption {
	return func(r *Request) { r.UseCache = true }
}

// CacheDiscriminator enables caching and separates the entry by d.
func CacheDiscriminator(d string) CallOption {
	return func(r *Request) {
		r.UseCache = true
		r.CacheDiscriminator = d
	}
}

// Header adds an extra request header.
func Header(name, value string) CallOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = map[string]string{}
		}
		r.Headers[name] = value
	}
}

// SignWith overrides the signing function for the call.
func SignWith(fn signer.Func) CallOption {
	return func(r *Request) { r.SignFunc = fn }
}

func newRequest(method, path string, params signer.Params, opts []CallOption) Request {
	req := Request{Method: method, Path: path, Params: params}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, params signer.Params, opts ...CallOption) (cache.Payload, error) {
	return c.Execute(ctx, newRequest(http.MethodGet, path, params, opts))
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, params signer.Params, opts ...CallOption) (cache.Payload, error) {
	return c.Execute(ctx, newRequest(http.MethodPost, path, params, opts))
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, params signer.Params, opts ...CallOption) (cache.Payload, error) {
	return c.Execute(ctx, newRequest(http.MethodPut, path, params, opts))
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, params signer.Params, opts ...CallOption) (cache.Payload, error) {
	return c.Execute(ctx, newRequest(http.MethodDelete, path, params, opts))
}

// GetAsync is the non-blocking Get.
func (c *Client) GetAsync(ctx context.Context, path string, params signer.Params, opts ...CallOption) *async.Future[cache.Payload] {
	return c.ExecuteAsync(ctx, newRequest(http.MethodGet, path, params, opts))
}

// PostAsync is the non-blocking Post.
func (c *Client) PostAsync(ctx context.Context, path string, params signer.Params, opts ...CallOption) *async.Future[cache.Payload] {
	return c.ExecuteAsync(ctx, newRequest(http.MethodPost, path, params, opts))
}

// PutAsync is the non-blocking Put.
func (c *Client) PutAsync(ctx context.Context, path string, params signer.Params, opts ...CallOption) *async.Future[cache.Payload] {
	return c.ExecuteAsync(ctx, newRequest(http.MethodPut, path, params, opts))
}

// DeleteAsync is the non-blocking Delete.
func (c *Client) DeleteAsync(ctx context.Context, path string, params signer.Params, opts ...CallOption) *async.Future[cache.Payload] {
	return c.ExecuteAsync(ctx, newRequest(http.MethodDelete, path, params, opts))
}

func normalizeMethod(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m)
}

func normalizePath(p string) string {
	if p == "" || p[0] == '/' {
		return p
	}
	return "/" + p
}
