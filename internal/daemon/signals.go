package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/manav03panchal/alarmd/internal/logging"
)

// shutdownSignals end the daemon. SIGHUP is included because a closed
// terminal should not leave an orphan owning the event log.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// WithShutdownSignals returns a context cancelled on the first shutdown
// signal or when parent ends. Call stop to release the signal handler.
func WithShutdownSignals(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)

	go func() {
		select {
		case sig := <-ch:
			logging.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
