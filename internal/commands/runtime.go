package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

// DefaultCommandTimeout bounds command execution when no override is given.
// Both the generic Handler and the hand-rolled maintenance handlers start from it.
const DefaultCommandTimeout = 30 * time.Second

// EnsureContext substitutes context.Background for a nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout applies the timeout to ctx. Zero or negative disables the
// deadline; the returned cancel func is safe to call either way.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger substitutes a no-op logger for a nil one.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
