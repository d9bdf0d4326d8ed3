// Package signalwatcher watches for interrupt and termination signals
// delivered to the current process and hands them to a callback.
package signalwatcher

import (
	"os"
	"os/signal"

	"github.com/vaultrun/vaultrun/logger"
)

// Watch starts watching for termination signals and invokes handler with
// each one received. It returns a stop function that unregisters the
// watcher and releases its goroutine.
func Watch(l logger.Logger, handler func(os.Signal)) (stop func()) {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, watchedSignals()...)

	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-signals:
				l.Debug("[SignalWatcher] Caught signal %v", sig)
				handler(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}
