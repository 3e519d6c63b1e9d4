// Package logging builds the zap logger used across volley and carries it on
// a context.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type ctxKey struct{}

// New builds a logger writing to stderr. Production selects the JSON encoder;
// otherwise a human-readable console encoder is used. Level is one of debug,
// info, warn, error.
func New(production bool, level string) (*zap.Logger, error) {
	var conf zap.Config
	if production {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
		// Development config panics on DPanic and prints stack traces on warn.
		conf.Development = false
		conf.DisableStacktrace = true
	}

	if level == "" {
		level = "warn"
	}
	if err := conf.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	conf.OutputPaths = []string{"stderr"}
	conf.ErrorOutputPaths = []string{"stderr"}

	return conf.Build()
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.NewNop()
	}
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

func Debug(ctx context.Context, message string, fields ...zap.Field) {
	FromContext(ctx).Debug(message, fields...)
}

func Info(ctx context.Context, message string, fields ...zap.Field) {
	FromContext(ctx).Info(message, fields...)
}

func Warn(ctx context.Context, message string, fields ...zap.Field) {
	FromContext(ctx).Warn(message, fields...)
}
