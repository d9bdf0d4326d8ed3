package session

import (
	"context"
	"fmt"
	"time"

	"github.com/buildkite/roko"
	"github.com/vaultrun/vaultrun/env"
	"github.com/vaultrun/vaultrun/internal/hostenv"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/logger"
)

const maxInteractiveAttempts = 3

// Manager acquires, validates and invalidates session handles. Local
// contexts may cache handles through the configured Store; CI contexts
// hold them in memory only and never touch the persistence path.
type Manager struct {
	client  secretstore.Client
	store   Store
	environ *env.Environment
	logger  logger.Logger
}

type ManagerConfig struct {
	Client secretstore.Client

	// Store is the local persistence for handles. Only consulted in the
	// Local context.
	Store Store

	// Environ is where the service credential is looked up in CI
	// contexts.
	Environ *env.Environment

	Logger logger.Logger
}

func NewManager(c ManagerConfig) *Manager {
	l := c.Logger
	if l == nil {
		l = logger.Discard
	}
	environ := c.Environ
	if environ == nil {
		environ = env.New()
	}
	return &Manager{
		client:  c.Client,
		store:   c.Store,
		environ: environ,
		logger:  l,
	}
}

// Acquire returns a valid session handle for the given execution context,
// or an error. No secret resolution or process spawn may happen before
// this succeeds.
func (m *Manager) Acquire(ctx context.Context, hctx hostenv.Context) (Handle, error) {
	if hctx.IsCI() {
		return m.acquireService(ctx)
	}
	return m.acquireLocal(ctx)
}

// acquireService establishes a memory-only session from the
// pre-provisioned service credential. No retry and no prompt: failures in
// CI are immediately fatal.
func (m *Manager) acquireService(ctx context.Context) (Handle, error) {
	token, ok := m.environ.Get(ServiceTokenEnvVar)
	if !ok || token == "" {
		return Handle{}, ErrMissingServiceCredential
	}

	t, err := m.client.SignIn(ctx, secretstore.SignInRequest{ServiceToken: token})
	if err != nil {
		return Handle{}, fmt.Errorf("service credential sign-in: %w", err)
	}

	return Handle{
		Token:      t,
		Source:     ServiceAccount,
		AcquiredAt: time.Now().UTC(),
	}, nil
}

// acquireLocal prefers a cached handle, validating it against the store
// before trusting it. Otherwise it signs in interactively, with a bounded
// number of attempts, and caches the result.
func (m *Manager) acquireLocal(ctx context.Context) (Handle, error) {
	if m.store != nil {
		cached, ok, err := m.store.Get()
		if err != nil {
			return Handle{}, fmt.Errorf("reading cached session: %w", err)
		}
		if ok {
			if err := m.client.Verify(ctx, cached.Token); err == nil {
				m.logger.Debug("[Session] Using cached session from %s", cached.AcquiredAt.Format(time.RFC3339))
				return cached, nil
			}
			m.logger.Debug("[Session] Cached session no longer valid, reacquiring")
			if err := m.store.Delete(); err != nil {
				m.logger.Warn("[Session] Could not remove stale session: %v", err)
			}
		}
	}

	var token string
	err := roko.NewRetrier(
		roko.WithMaxAttempts(maxInteractiveAttempts),
		roko.WithStrategy(roko.Constant(0)),
	).DoWithContext(ctx, func(r *roko.Retrier) error {
		t, err := m.client.SignIn(ctx, secretstore.SignInRequest{Interactive: true})
		if err != nil {
			// Surface the store's rejection reason so the human can fix
			// whatever went wrong before the next attempt.
			m.logger.Warn("[Session] Sign-in attempt %d of %d failed: %v", r.AttemptCount()+1, maxInteractiveAttempts, err)
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %w", ErrExhaustedRetries, err)
	}

	h := Handle{
		Token:      token,
		Source:     Interactive,
		AcquiredAt: time.Now().UTC(),
	}

	if m.store != nil {
		if err := m.store.Put(h); err != nil {
			// A session that cannot be cached still works for this
			// invocation.
			m.logger.Warn("[Session] Could not cache session: %v", err)
		}
	}

	return h, nil
}

// Validate is a live round trip to the store. It never assumes cached
// freshness.
func (m *Manager) Validate(ctx context.Context, h Handle) bool {
	if h.IsZero() {
		return false
	}
	if err := m.client.Verify(ctx, h.Token); err != nil {
		m.logger.Debug("[Session] Validation failed: %v", err)
		return false
	}
	return true
}

// Invalidate signs the session out of the store and forgets any cached
// copy.
func (m *Manager) Invalidate(ctx context.Context, h Handle) error {
	if !h.IsZero() {
		if err := m.client.SignOut(ctx, h.Token); err != nil {
			m.logger.Warn("[Session] Store sign-out failed: %v", err)
		}
	}

	if m.store != nil {
		if err := m.store.Delete(); err != nil {
			return err
		}
	}

	return nil
}
