package process

import (
	"fmt"
	"strings"
	"syscall"
)

// Signal is a signal that can be sent to a process.
type Signal syscall.Signal

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGKILL Signal = 9
	SIGUSR1 Signal = 10
	SIGUSR2 Signal = 12
	SIGTERM Signal = 15
)

var signalMap = map[string]Signal{
	"SIGHUP":  SIGHUP,
	"SIGINT":  SIGINT,
	"SIGQUIT": SIGQUIT,
	"SIGKILL": SIGKILL,
	"SIGUSR1": SIGUSR1,
	"SIGUSR2": SIGUSR2,
	"SIGTERM": SIGTERM,
}

// ParseSignal converts a signal name like "SIGTERM" (or "term") into a
// Signal.
func ParseSignal(sig string) (Signal, error) {
	s, ok := signalMap[strings.ToUpper(sig)]
	if !ok {
		normalized := "SIG" + strings.ToUpper(sig)
		if s, ok = signalMap[normalized]; !ok {
			return Signal(0), fmt.Errorf("unknown signal %q", sig)
		}
	}
	return s, nil
}

func (s Signal) String() string {
	for name, sig := range signalMap {
		if sig == s {
			return name
		}
	}
	return fmt.Sprintf("%d", int(s))
}
