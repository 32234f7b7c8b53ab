package logging

import (
	"context"

	"github.com/charmbracelet/log"
)

type loggerContextKey struct{}

// WithLogger attaches a logger to the context. The pipeline threads run-
// and phase-scoped fields through every component this way.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext returns the logger attached to the context, falling back to
// the package default so call sites never need a nil check.
func FromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerContextKey{}).(*log.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}
