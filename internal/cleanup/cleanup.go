// Package cleanup guarantees that teardown actions registered during one
// invocation run before that invocation returns, regardless of how the
// wrapped command terminates.
package cleanup

import (
	"sync"

	"github.com/vaultrun/vaultrun/logger"
)

// Guarantor is a stack of teardown actions scoped to one invocation.
// Teardowns run in reverse registration order. Each teardown runs at most
// once, even when RunAll is invoked from more than one place (a normal
// return racing a signal handler, say), so teardowns must still be safe to
// write non-reentrantly.
type Guarantor struct {
	mu        sync.Mutex
	logger    logger.Logger
	teardowns []teardown
}

type teardown struct {
	name string
	fn   func() error
}

func New(l logger.Logger) *Guarantor {
	if l == nil {
		l = logger.Discard
	}
	return &Guarantor{logger: l}
}

// Register pushes a teardown action onto the stack. The name is used only
// for logging.
func (g *Guarantor) Register(name string, fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.teardowns = append(g.teardowns, teardown{name: name, fn: fn})
	g.logger.Debug("[Cleanup] Registered teardown %q", name)
}

// RunAll runs every registered teardown and empties the stack. Calling it
// again is a no-op; a concurrent call blocks until the first completes, so
// a caller returning from RunAll knows every teardown has finished.
func (g *Guarantor) RunAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(g.teardowns) - 1; i >= 0; i-- {
		td := g.teardowns[i]
		g.logger.Debug("[Cleanup] Running teardown %q", td.name)
		if err := td.fn(); err != nil {
			// Teardown failures are reported, never fatal: the remaining
			// teardowns still have to run.
			g.logger.Error("[Cleanup] Teardown %q failed: %v", td.name, err)
		}
	}

	g.teardowns = nil
}

// Len returns the number of teardowns currently registered.
func (g *Guarantor) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.teardowns)
}
