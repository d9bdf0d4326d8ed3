//go:build windows

package signalwatcher

import "os"

func watchedSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
