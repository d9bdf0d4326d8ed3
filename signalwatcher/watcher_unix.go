//go:build !windows

package signalwatcher

import (
	"os"
	"syscall"
)

func watchedSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	}
}
