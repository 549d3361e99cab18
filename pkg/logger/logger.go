package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bingx/pkg/errors"
)

var globalLogger *Logger

// Logger wraps zap.SugaredLogger with optional error tracking
type Logger struct {
	*zap.SugaredLogger
	errorTracker errors.Tracker
	component    string
}

// Init initializes the global logger
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	globalLogger = &Logger{SugaredLogger: logger.Sugar()}
	return nil
}

// SetErrorTracker sets the error tracker for automatic error reporting
func SetErrorTracker(tracker errors.Tracker) {
	if globalLogger != nil {
		globalLogger.errorTracker = tracker
	}
}

// Get returns the global logger
func Get() *Logger {
	if globalLogger == nil {
		logger, _ := zap.NewDevelopment()
		globalLogger = &Logger{SugaredLogger: logger.Sugar()}
	}
	return globalLogger
}

// New wraps z. Library callers use it to route client output into their own
// zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{SugaredLogger: z.Sugar()}
}

// WithTracker returns a copy of l that reports errors to t.
func (l *Logger) WithTracker(t errors.Tracker) *Logger {
	child := *l
	child.errorTracker = t
	return &child
}

// Nop returns a logger that discards everything. Used by tests and by
// library callers that do not want client output.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// With creates a child logger with additional fields
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		errorTracker:  l.errorTracker,
		component:     l.component,
	}
}

// Component returns a child logger tagged with name. Errors it reports to the
// tracker carry the same component tag.
func (l *Logger) Component(name string) *Logger {
	child := l.With("component", name)
	child.component = name
	return child
}

func (l *Logger) capture(ctx context.Context, err error, tags map[string]string) {
	if l.errorTracker == nil {
		return
	}
	out := map[string]string{"component": l.component}
	if out["component"] == "" {
		out["component"] = "bingx"
	}
	if category := errors.Category(err); category != nil {
		out["category"] = category.Error()
	}
	for k, v := range tags {
		out[k] = v
	}
	_ = l.errorTracker.CaptureError(ctx, err, out)
}

// Error logs an error and optionally sends it to error tracker
func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)
	l.capture(context.Background(), errors.Wrapf(errors.ErrInternal, "%v", fmt.Sprint(args...)), nil)
}

// Errorf logs a formatted error and optionally sends it to error tracker
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.capture(context.Background(), fmt.Errorf(template, args...), nil)
}

// Message logs message at level with tags as fields and forwards it to the
// tracker. It is for conditions worth reporting that are not errors.
func (l *Logger) Message(ctx context.Context, level errors.Level, message string, tags map[string]string) {
	fields := make([]interface{}, 0, 2*len(tags))
	for k, v := range tags {
		fields = append(fields, k, v)
	}
	switch level {
	case errors.LevelDebug:
		l.Debugw(message, fields...)
	case errors.LevelInfo:
		l.Infow(message, fields...)
	case errors.LevelError, errors.LevelFatal:
		l.Errorw(message, fields...)
	default:
		l.Warnw(message, fields...)
	}

	if l.errorTracker == nil {
		return
	}
	out := map[string]string{"component": l.component}
	if out["component"] == "" {
		out["component"] = "bingx"
	}
	for k, v := range tags {
		out[k] = v
	}
	_ = l.errorTracker.CaptureMessage(ctx, message, level, out)
}

// ErrorWithContext logs err with its tags and reports it to the tracker.
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.SugaredLogger.Errorw(err.Error(), "tags", tags)
	l.capture(ctx, err, tags)
}

// Sync flushes any buffered log entries
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
