// Provides helper functions for working with contexts.
package types

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// NewTimeoutSubContext creates a new cancellable sub-context that is cancelled
// when the provided timeout is reached. A zero timeout only adds cancellation.
func NewTimeoutSubContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// NewSignalNotifySubContext creates a new cancellable sub-context that is cancelled when the provided signals are received.
func NewSignalNotifySubContext(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, signals...)
}

// DefaultSignalNotifySubContext creates a new cancellable context that is cancelled when SIGINT or SIGTERM is received.
func DefaultSignalNotifySubContext() (context.Context, context.CancelFunc) {
	return NewSignalNotifySubContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
