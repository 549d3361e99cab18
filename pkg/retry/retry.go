// Package retry re-runs exchange calls that failed for transient reasons.
// The request pipeline never retries on its own; callers opt in by wrapping
// a call with Policy.Do.
package retry

import (
	"context"
	"math"
	"net"
	"net/http"
	"time"

	"bingx/pkg/apierr"
	"bingx/pkg/errors"
)

// Strategy defines the backoff curve
type Strategy string

const (
	// StrategyExponential uses exponential backoff
	StrategyExponential Strategy = "exponential"
	// StrategyLinear uses linear backoff
	StrategyLinear Strategy = "linear"
	// StrategyFixed uses fixed delay
	StrategyFixed Strategy = "fixed"
)

// Config contains retry configuration
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Strategy     Strategy
	Multiplier   float64 // For exponential backoff
}

// DefaultConfig returns the policy used when no overrides are given.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Strategy:     StrategyExponential,
		Multiplier:   2.0,
	}
}

// retryableKinds are exchange rejections that can succeed on a later attempt.
// Timestamp errors usually mean clock skew at the edge and clear on re-sign.
var retryableKinds = map[apierr.Kind]bool{
	apierr.KindRateLimit:       true,
	apierr.KindTooManyRequests: true,
	apierr.KindRPCTimeout:      true,
	apierr.KindGatewayTimeout:  true,
	apierr.KindInternalSystem:  true,
	apierr.KindTimestamp:       true,
}

// Policy retries a function with backoff
type Policy struct {
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a retry policy. A zero Config yields DefaultConfig. Otherwise
// unset delays, multiplier and strategy come from DefaultConfig while
// MaxRetries is taken as given, so MaxRetries 0 runs fn exactly once.
func New(config Config) *Policy {
	def := DefaultConfig()
	if config == (Config{}) {
		config = def
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = def.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = def.Multiplier
	}
	if config.Strategy == "" {
		config.Strategy = def.Strategy
	}

	return &Policy{config: config, sleep: sleepContext}
}

// Do executes fn until it succeeds, fails permanently or retries run out.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is the generic form of Policy.Do for calls that return a value.
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !Retryable(err) {
			var zero T
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt == p.config.MaxRetries {
			break
		}

		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			var zero T
			return zero, errors.Wrap(err, "retry cancelled")
		}
	}

	var zero T
	return zero, errors.Wrapf(lastErr, "max retries (%d) exceeded", p.config.MaxRetries)
}

// delay calculates the backoff delay based on the strategy
func (p *Policy) delay(attempt int) time.Duration {
	var d time.Duration

	switch p.config.Strategy {
	case StrategyExponential:
		d = time.Duration(float64(p.config.InitialDelay) * math.Pow(p.config.Multiplier, float64(attempt)))
	case StrategyLinear:
		d = p.config.InitialDelay * time.Duration(1+attempt)
	default:
		d = p.config.InitialDelay
	}

	if d > p.config.MaxDelay {
		d = p.config.MaxDelay
	}
	return d
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are final
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if kind, ok := apierr.KindOf(err); ok {
		return retryableKinds[kind]
	}

	var httpErr interface{ StatusCode() int }
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
