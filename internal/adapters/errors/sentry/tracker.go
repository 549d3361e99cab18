package sentry

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"bingx/pkg/apierr"
	"bingx/pkg/errors"
)

var _ errors.Tracker = (*Tracker)(nil)

// Tracker reports client failures to Sentry.
type Tracker struct {
	hub *sentry.Hub
}

// New initialises the Sentry SDK and returns a tracker on its hub.
func New(dsn string, environment string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sentry init")
	}

	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// NewWithHub wraps an existing hub.
func NewWithHub(hub *sentry.Hub) *Tracker {
	return &Tracker{hub: hub}
}

// CaptureError sends err with tags. Exchange errors also carry the api code
// and kind so events group by failure class.
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	if err == nil {
		return nil
	}
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range errorTags(err, tags) {
			scope.SetTag(k, v)
		}
	})

	hub.CaptureException(err)
	return nil
}

// CaptureMessage sends message at level.
func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetLevel(convertLevel(level))
	})

	hub.CaptureMessage(message)
	return nil
}

func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
	t.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Message:  message,
		Category: category,
		Level:    convertLevel(level),
		Data:     data,
	}, &sentry.BreadcrumbHint{})
}

// Flush waits up to two seconds for buffered events.
func (t *Tracker) Flush(ctx context.Context) error {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !t.hub.Flush(timeout) {
		return errors.Wrap(errors.ErrTimeout, "sentry flush")
	}
	return nil
}

func errorTags(err error, tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+3)
	for k, v := range tags {
		out[k] = v
	}

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		out["api_code"] = strconv.FormatInt(apiErr.Code, 10)
		out["api_kind"] = apiErr.Kind.String()
		out["api_category"] = apiErr.Kind.Category().String()
	}
	return out
}

func convertLevel(level errors.Level) sentry.Level {
	switch level {
	case errors.LevelDebug:
		return sentry.LevelDebug
	case errors.LevelInfo:
		return sentry.LevelInfo
	case errors.LevelWarning:
		return sentry.LevelWarning
	case errors.LevelError:
		return sentry.LevelError
	case errors.LevelFatal:
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}
