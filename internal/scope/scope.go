// Package scope builds the ephemeral credential scope for one wrapped
// tool invocation: the subprocess descriptor that exposes resolved
// secrets to exactly one child, plus the teardowns that guarantee nothing
// outlives the invocation.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultrun/vaultrun/internal/cleanup"
	"github.com/vaultrun/vaultrun/internal/registry"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/internal/session"
	"github.com/vaultrun/vaultrun/logger"
)

// ErrInvalidSession is returned when the supplied session handle is no
// longer accepted by the store.
var ErrInvalidSession = errors.New("session handle is no longer valid")

// A ResolutionError means the store could not resolve a secret reference
// (missing vault, item, or field).
type ResolutionError struct {
	Ref secretstore.Ref
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// A SetupError means the scope itself could not be constructed (artifact
// creation failed, say). The wrapped tool is never spawned after one.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setting up credential scope: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Invocation is a ready-to-run descriptor for the wrapped tool: the
// program, its untouched argument vector, and the environment additions
// that make up the credential scope. Nothing is ever removed from the
// caller's environment.
type Invocation struct {
	Path string
	Args []string

	// Env contains only the scope's additions.
	Env []string

	Strategy registry.Strategy

	// BridgePath is the single-use artifact path, set only for the
	// bridge-file strategy.
	BridgePath string
}

// SessionValidator confirms a handle with the session manager. Satisfied
// by *session.Manager.
type SessionValidator interface {
	Validate(ctx context.Context, h session.Handle) bool
}

// Builder materializes credential scopes.
type Builder struct {
	client    secretstore.Client
	sessions  SessionValidator
	guarantor *cleanup.Guarantor
	logger    logger.Logger

	// bridgeDir overrides the directory bridge artifacts are created in.
	bridgeDir string
}

type BuilderConfig struct {
	Client    secretstore.Client
	Sessions  SessionValidator
	Guarantor *cleanup.Guarantor
	Logger    logger.Logger
	BridgeDir string
}

func NewBuilder(c BuilderConfig) *Builder {
	l := c.Logger
	if l == nil {
		l = logger.Discard
	}
	return &Builder{
		client:    c.Client,
		sessions:  c.Sessions,
		guarantor: c.Guarantor,
		logger:    l,
		bridgeDir: c.BridgeDir,
	}
}

// Build materializes the scope for one invocation of profile's tool with
// the given arguments. Teardowns for anything created on disk are
// registered with the cleanup guarantor before Build returns, so even a
// spawn-time crash leaves a registered cleanup obligation.
func (b *Builder) Build(ctx context.Context, profile registry.Profile, handle session.Handle, args []string) (Invocation, error) {
	if !b.sessions.Validate(ctx, handle) {
		return Invocation{}, ErrInvalidSession
	}

	switch profile.Strategy {
	case registry.StrategyExport:
		return b.buildExport(profile, handle, args), nil
	case registry.StrategyBridgeFile:
		return b.buildBridgeFile(ctx, profile, handle, args)
	default:
		// The registry validates strategies at registration time.
		return Invocation{}, &SetupError{Err: fmt.Errorf("unknown strategy %q", profile.Strategy)}
	}
}

// buildExport delegates resolution to the store's run operation: each
// reference resolves inside the spawned subprocess's address space, never
// in ours.
func (b *Builder) buildExport(profile registry.Profile, handle session.Handle, args []string) Invocation {
	cmd := b.client.ExportCommand(handle.Token, profile.Bindings, profile.Tool, args...)

	b.logger.Debug("[Scope] Export scope for %q with %d bindings", profile.Tool, len(profile.Bindings))

	return Invocation{
		Path:     cmd.Path,
		Args:     cmd.Args,
		Env:      cmd.Env,
		Strategy: registry.StrategyExport,
	}
}

// buildBridgeFile resolves exactly one secret up front and hides it
// behind a single-use executable whose path is exposed through the
// binding's destination variable.
func (b *Builder) buildBridgeFile(ctx context.Context, profile registry.Profile, handle session.Handle, args []string) (Invocation, error) {
	binding := profile.Bindings[0]

	value, err := b.client.Read(ctx, handle.Token, binding.Ref)
	if err != nil {
		return Invocation{}, &ResolutionError{Ref: binding.Ref, Err: err}
	}

	path, err := writeBridgeArtifact(b.bridgeDir, value)
	if err != nil {
		return Invocation{}, &SetupError{Err: err}
	}

	// Registered before the caller can possibly spawn anything, so the
	// artifact is torn down on every path from here on.
	b.guarantor.Register("bridge artifact", func() error {
		return removeBridgeArtifact(path)
	})

	b.logger.Debug("[Scope] Bridge scope for %q via %s", profile.Tool, binding.Name)

	return Invocation{
		Path:       profile.Tool,
		Args:       args,
		Env:        []string{binding.Name + "=" + path},
		Strategy:   registry.StrategyBridgeFile,
		BridgePath: path,
	}, nil
}
