package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kwkoo/go-birdr/internal/logger"
)

var (
	wg   sync.WaitGroup
	ctx  context.Context
	stop context.CancelFunc
)

// InitShutdownHandler arranges for Context to be cancelled on SIGINT or
// SIGTERM.
func InitShutdownHandler() {
	ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Context registers a component that must call NotifyShutdownComplete once
// it has stopped.
func Context() context.Context {
	wg.Add(1)
	return ctx
}

func NotifyShutdownComplete() {
	wg.Done()
}

// Shutdown cancels the shared context as if a signal had been received.
func Shutdown() {
	stop()
}

// WaitForShutdown blocks until every registered component has stopped. It
// gives up after timeout and reports whether all components finished.
func WaitForShutdown(timeout time.Duration) bool {
	<-ctx.Done()
	log := logger.For("shutdown")
	log.Info().Msg("shutting down")

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	defer stop()
	select {
	case <-finished:
		log.Info().Msg("shutdown complete")
		return true
	case <-time.After(timeout):
		log.Warn().Dur("timeout", timeout).Msg("components did not stop in time")
		return false
	}
}
