// Package supervisor runs one wrapped tool invocation end to end:
// classify the execution context, obtain a session, materialize the
// credential scope, run the tool, and guarantee the scope is torn down
// before the exit status is reported.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vaultrun/vaultrun/env"
	"github.com/vaultrun/vaultrun/internal/cleanup"
	"github.com/vaultrun/vaultrun/internal/hostenv"
	"github.com/vaultrun/vaultrun/internal/registry"
	"github.com/vaultrun/vaultrun/internal/scope"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/internal/session"
	"github.com/vaultrun/vaultrun/logger"
	"github.com/vaultrun/vaultrun/process"
	"github.com/vaultrun/vaultrun/signalwatcher"
)

type Config struct {
	// Tool is the wrapped tool's name in the registry; Args are passed to
	// it untouched.
	Tool string
	Args []string

	Registry *registry.Registry
	Sessions *session.Manager
	Client   secretstore.Client

	// Environ is the caller's environment. The child receives it plus
	// exactly the scope's additions, minus the service credential.
	Environ *env.Environment

	Logger logger.Logger

	// Standard streams inherited by the wrapped tool.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// BridgeDir overrides where bridge artifacts are created.
	BridgeDir string

	// InterruptSignal is sent to the child when the supervisor's context
	// is cancelled. Defaults to SIGTERM.
	InterruptSignal process.Signal
}

// A SpawnError is a failure to start the wrapped tool itself, distinct
// from a failure preparing its credential scope.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting wrapped tool: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Run supervises one invocation and returns the exit code to report.
// A non-nil error is a supervisor-internal failure that happened before
// the wrapped tool spawned; the tool's own failures come back as its exit
// code with a nil error. Every teardown registered during the invocation
// has run by the time Run returns.
func Run(ctx context.Context, cfg Config) (exitCode int, err error) {
	l := cfg.Logger
	if l == nil {
		l = logger.Discard
	}
	environ := cfg.Environ
	if environ == nil {
		environ = env.FromSlice(os.Environ())
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	hctx := hostenv.Classify(environ)
	l.Debug("[Supervisor] Execution context: %s", hctx)

	profile, err := cfg.Registry.Resolve(cfg.Tool)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The guarantor drains on every path out of this function, including
	// panics further down and scope setup failures that registered a
	// partial teardown.
	guarantor := cleanup.New(l)
	defer guarantor.RunAll()

	// The watcher must be live before any scope material exists on disk.
	// Until the tool spawns, a signal aborts the invocation so the
	// unwinding path above drains the guarantor; afterwards it is
	// forwarded to the tool's process group and the supervisor stays
	// alive to run teardowns once the tool exits.
	var (
		procMu sync.Mutex
		proc   *process.Process
	)
	stopWatching := signalwatcher.Watch(l, func(sig os.Signal) {
		procMu.Lock()
		p := proc
		procMu.Unlock()

		if p == nil {
			l.Debug("[Supervisor] Received %v before the tool spawned, aborting", sig)
			cancel()
			return
		}
		if err := p.Signal(sig); err != nil {
			l.Debug("[Supervisor] Could not forward %v: %v", sig, err)
		}
	})
	defer stopWatching()

	handle, err := cfg.Sessions.Acquire(ctx, hctx)
	if err != nil {
		return 0, err
	}

	builder := scope.NewBuilder(scope.BuilderConfig{
		Client:    cfg.Client,
		Sessions:  cfg.Sessions,
		Guarantor: guarantor,
		Logger:    l,
		BridgeDir: cfg.BridgeDir,
	})

	inv, err := builder.Build(ctx, profile, handle, cfg.Args)
	if err != nil {
		return 0, err
	}

	// The service credential is vaultrun's input, not the tool's; it
	// never crosses into the child.
	childEnv := environ.Copy()
	childEnv.Remove(session.ServiceTokenEnvVar)
	childEnv.Merge(env.FromSlice(inv.Env))

	l.Debug("[Supervisor] Running %s", process.FormatCommand(inv.Path, inv.Args))

	p := process.New(l, process.Config{
		Path:            inv.Path,
		Args:            inv.Args,
		Env:             childEnv.ToSlice(),
		Stdin:           cfg.Stdin,
		Stdout:          stdout,
		Stderr:          stderr,
		InterruptSignal: cfg.InterruptSignal,
	})

	procMu.Lock()
	proc = p
	procMu.Unlock()

	if err := p.Run(ctx); err != nil {
		return 0, &SpawnError{Err: err}
	}

	return p.ExitCode(), nil
}
