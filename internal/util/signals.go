package util

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals cancel a running batch
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WithShutdown returns a child of parent that is cancelled with a cause
// wrapping ErrCancelled when the process receives SIGINT or SIGTERM.
// The first signal lets the batch wind down, a second one exits immediately.
// Calling stop releases the signal handler.
func WithShutdown(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, shutdownSignals...)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal, cancelling batch", "signal", sig.String())
			cancel(fmt.Errorf("%w: received %s", ErrCancelled, sig))
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			slog.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel(nil)
	}
}
