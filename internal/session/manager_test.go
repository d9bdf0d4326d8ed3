package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultrun/vaultrun/env"
	"github.com/vaultrun/vaultrun/internal/hostenv"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/logger"
)

// fakeClient is an in-memory secretstore.Client.
type fakeClient struct {
	signInErrs  []error // errors returned by successive interactive sign-ins
	signIns     int
	tokens      map[string]bool // tokens Verify accepts
	signedOut   []string
	serviceSeen string
}

func newFakeClient(validTokens ...string) *fakeClient {
	c := &fakeClient{tokens: map[string]bool{}}
	for _, t := range validTokens {
		c.tokens[t] = true
	}
	return c
}

func (c *fakeClient) SignIn(ctx context.Context, req secretstore.SignInRequest) (string, error) {
	if !req.Interactive {
		c.serviceSeen = req.ServiceToken
		if !c.tokens[req.ServiceToken] {
			return "", errors.New("store rejected service credential")
		}
		return req.ServiceToken, nil
	}

	attempt := c.signIns
	c.signIns++
	if attempt < len(c.signInErrs) && c.signInErrs[attempt] != nil {
		return "", c.signInErrs[attempt]
	}

	c.tokens["tok-interactive"] = true
	return "tok-interactive", nil
}

func (c *fakeClient) Verify(ctx context.Context, token string) error {
	if c.tokens[token] {
		return nil
	}
	return errors.New("store rejected session")
}

func (c *fakeClient) SignOut(ctx context.Context, token string) error {
	c.signedOut = append(c.signedOut, token)
	delete(c.tokens, token)
	return nil
}

func (c *fakeClient) Read(ctx context.Context, token string, ref secretstore.Ref) (string, error) {
	return "", errors.New("not used in session tests")
}

func (c *fakeClient) ExportCommand(token string, bindings []secretstore.Binding, program string, args ...string) secretstore.Command {
	return secretstore.Command{}
}

func TestAcquireLocalUsesValidCachedHandle(t *testing.T) {
	client := newFakeClient("tok-cached")
	store := &MemoryStore{}
	require.NoError(t, store.Put(Handle{Token: "tok-cached", Source: Interactive}))

	m := NewManager(ManagerConfig{Client: client, Store: store, Logger: logger.Discard})

	h, err := m.Acquire(context.Background(), hostenv.Local)
	require.NoError(t, err)
	assert.Equal(t, "tok-cached", h.Token)
	assert.True(t, h.Cached)
	assert.Equal(t, 0, client.signIns, "no interactive sign-in should happen")
}

func TestAcquireLocalReplacesInvalidCachedHandle(t *testing.T) {
	client := newFakeClient() // cached token not valid
	store := &MemoryStore{}
	require.NoError(t, store.Put(Handle{Token: "tok-stale", Source: Interactive}))

	m := NewManager(ManagerConfig{Client: client, Store: store, Logger: logger.Discard})

	h, err := m.Acquire(context.Background(), hostenv.Local)
	require.NoError(t, err)
	assert.Equal(t, "tok-interactive", h.Token)
	assert.False(t, h.Cached)

	cached, ok, err := store.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-interactive", cached.Token)
}

func TestAcquireLocalRetriesInteractiveSignIn(t *testing.T) {
	client := newFakeClient()
	client.signInErrs = []error{
		errors.New("wrong passphrase"),
		errors.New("wrong passphrase again"),
	}

	m := NewManager(ManagerConfig{Client: client, Store: &MemoryStore{}, Logger: logger.Discard})

	h, err := m.Acquire(context.Background(), hostenv.Local)
	require.NoError(t, err)
	assert.Equal(t, "tok-interactive", h.Token)
	assert.Equal(t, 3, client.signIns)
}

func TestAcquireLocalExhaustsRetries(t *testing.T) {
	client := newFakeClient()
	client.signInErrs = []error{
		errors.New("nope"),
		errors.New("still nope"),
		errors.New("definitely nope"),
	}

	l := logger.NewBuffer()
	m := NewManager(ManagerConfig{Client: client, Store: &MemoryStore{}, Logger: l})

	_, err := m.Acquire(context.Background(), hostenv.Local)
	require.ErrorIs(t, err, ErrExhaustedRetries)
	assert.Equal(t, 3, client.signIns)

	// Each rejection reason was surfaced to the human.
	assert.Len(t, l.Messages, 3)
	assert.Contains(t, l.Messages[2], "definitely nope")
}

func TestAcquireCIUsesServiceCredential(t *testing.T) {
	client := newFakeClient("tok-service")
	environ := env.FromMap(map[string]string{ServiceTokenEnvVar: "tok-service"})

	m := NewManager(ManagerConfig{Client: client, Environ: environ, Logger: logger.Discard})

	h, err := m.Acquire(context.Background(), hostenv.GitHubActions)
	require.NoError(t, err)
	assert.Equal(t, "tok-service", h.Token)
	assert.Equal(t, ServiceAccount, h.Source)
}

func TestAcquireCIFailsFastWithoutServiceCredential(t *testing.T) {
	client := newFakeClient()

	m := NewManager(ManagerConfig{Client: client, Environ: env.New(), Logger: logger.Discard})

	_, err := m.Acquire(context.Background(), hostenv.GitHubActions)
	require.ErrorIs(t, err, ErrMissingServiceCredential)
	assert.Equal(t, 0, client.signIns, "no retry and no prompt in CI")
}

func TestAcquireCINeverTouchesPersistencePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	client := newFakeClient("tok-service")
	environ := env.FromMap(map[string]string{ServiceTokenEnvVar: "tok-service"})

	// Even with a file store configured, CI acquisition must not write it.
	m := NewManager(ManagerConfig{
		Client:  client,
		Store:   &FileStore{Path: path},
		Environ: environ,
		Logger:  logger.Discard,
	})

	_, err := m.Acquire(context.Background(), hostenv.Buildkite)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "persistence path must remain absent")
}

func TestValidateIsALiveRoundTrip(t *testing.T) {
	client := newFakeClient("tok-live")
	m := NewManager(ManagerConfig{Client: client, Logger: logger.Discard})

	h := Handle{Token: "tok-live"}
	assert.True(t, m.Validate(context.Background(), h))

	// Store-side invalidation is noticed immediately.
	delete(client.tokens, "tok-live")
	assert.False(t, m.Validate(context.Background(), h))

	assert.False(t, m.Validate(context.Background(), Handle{}))
}

func TestInvalidateSignsOutAndForgets(t *testing.T) {
	client := newFakeClient("tok-bye")
	store := &MemoryStore{}
	require.NoError(t, store.Put(Handle{Token: "tok-bye"}))

	m := NewManager(ManagerConfig{Client: client, Store: store, Logger: logger.Discard})

	require.NoError(t, m.Invalidate(context.Background(), Handle{Token: "tok-bye"}))
	assert.Equal(t, []string{"tok-bye"}, client.signedOut)

	_, ok, err := store.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}
