// Package transport owns the HTTP connection pool used to reach the exchange.
//
// A Session moves Unopened -> Open -> Closed. Requests are only accepted while
// Open, and a closed session cannot be reopened.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"bingx/pkg/async"
	"bingx/pkg/errors"
	"bingx/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrSessionNotOpen is returned when a request is issued before Open.
	ErrSessionNotOpen = errors.Wrap(errors.ErrTransport, "session not open")

	// ErrSessionClosed is returned when a closed session is used or reopened.
	ErrSessionClosed = errors.Wrap(errors.ErrTransport, "session closed")
)

// State is the lifecycle position of a session.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HTTPError is a non-2xx response. The body is kept verbatim.
type HTTPError struct {
	Code   int
	Status string
	Body   string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// StatusCode exposes the HTTP status to retry policies.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// Unwrap returns the transport category.
func (e *HTTPError) Unwrap() error {
	return errors.ErrTransport
}

// Option configures a session.
type Option func(*options)

type options struct {
	timeout time.Duration
	log     *logger.Logger
}

// WithTimeout bounds each round trip, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Session is the blocking transport. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	state State

	opts      options
	transport *http.Transport
	client    *http.Client
}

// NewSession creates an unopened session.
func NewSession(opts ...Option) *Session {
	o := options{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	o.log = o.log.Component("transport")

	return &Session{opts: o}
}

// Open allocates the connection pool. Opening an open session is a no-op.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOpen:
		return nil
	case StateClosed:
		return ErrSessionClosed
	}

	s.transport = http.DefaultTransport.(*http.Transport).Clone()
	s.client = &http.Client{
		Transport: s.transport,
		Timeout:   s.opts.timeout,
	}
	s.state = StateOpen
	return nil
}

// Close releases pooled connections. Closing twice, or closing a session
// that was never opened, is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return nil
	}
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
	s.state = StateClosed
	s.client = nil
	s.transport = nil
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Do performs one request and decodes the body as a JSON object. Non-2xx
// responses become *HTTPError. An empty, unparseable or non-object body
// decodes to an empty map.
func (s *Session) Do(ctx context.Context, method, rawURL string, headers map[string]string) (map[string]any, error) {
	client, err := s.acquire()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", errors.ErrTransport, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrTransport, method, redact(rawURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", errors.ErrTransport, err)
	}

	s.opts.log.Debugw("exchange response",
		"method", method,
		"url", redact(rawURL),
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   string(body),
		}
	}

	return decode(body), nil
}

func (s *Session) acquire() (*http.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case StateUnopened:
		return nil, ErrSessionNotOpen
	case StateClosed:
		return nil, ErrSessionClosed
	}
	return s.client, nil
}

// AsyncSession is the non-blocking transport. Each request runs on its own
// goroutine and completes through a future.
type AsyncSession struct {
	s *Session
}

// NewAsyncSession creates an unopened non-blocking session.
func NewAsyncSession(opts ...Option) *AsyncSession {
	return &AsyncSession{s: NewSession(opts...)}
}

// Open allocates the connection pool.
func (a *AsyncSession) Open() error { return a.s.Open() }

// Close releases pooled connections. It is a no-op unless the session is open.
func (a *AsyncSession) Close() error { return a.s.Close() }

// State returns the current lifecycle state.
func (a *AsyncSession) State() State { return a.s.State() }

// DoAsync starts a request and returns its pending result. Lifecycle errors
// are reported through the future without starting a goroutine.
func (a *AsyncSession) DoAsync(ctx context.Context, method, rawURL string, headers map[string]string) *async.Future[map[string]any] {
	if _, err := a.s.acquire(); err != nil {
		return async.Resolved[map[string]any](nil, err)
	}
	return async.Go(ctx, func(ctx context.Context) (map[string]any, error) {
		return a.s.Do(ctx, method, rawURL, headers)
	})
}

// Lifecycle is implemented by both session kinds.
type Lifecycle interface {
	Open() error
	Close() error
}

// Within opens s, runs fn and closes s on every exit path, panics included.
// A close error is reported only when fn succeeded.
func Within(s Lifecycle, fn func() error) (err error) {
	if err := s.Open(); err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn()
}

func decode(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return map[string]any{}
	}
	return payload
}

// redact hides the signature in logged URLs.
func redact(rawURL string) string {
	i := strings.Index(rawURL, "signature=")
	if i < 0 {
		return rawURL
	}
	return rawURL[:i] + "signature=REDACTED"
}
