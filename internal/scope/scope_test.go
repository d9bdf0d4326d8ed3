//go:build !windows

package scope

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultrun/vaultrun/internal/cleanup"
	"github.com/vaultrun/vaultrun/internal/registry"
	"github.com/vaultrun/vaultrun/internal/secretstore"
	"github.com/vaultrun/vaultrun/internal/session"
	"github.com/vaultrun/vaultrun/logger"
)

type fakeClient struct {
	secrets map[string]string // ref string -> value
	reads   []string
}

func (c *fakeClient) SignIn(ctx context.Context, req secretstore.SignInRequest) (string, error) {
	return "", errors.New("not used")
}

func (c *fakeClient) Verify(ctx context.Context, token string) error { return nil }

func (c *fakeClient) SignOut(ctx context.Context, token string) error { return nil }

func (c *fakeClient) Read(ctx context.Context, token string, ref secretstore.Ref) (string, error) {
	c.reads = append(c.reads, ref.String())
	v, ok := c.secrets[ref.String()]
	if !ok {
		return "", errors.New("no such item")
	}
	return v, nil
}

func (c *fakeClient) ExportCommand(token string, bindings []secretstore.Binding, program string, args ...string) secretstore.Command {
	cliArgs := []string{"run"}
	for _, b := range bindings {
		cliArgs = append(cliArgs, "--env", b.Name+"="+b.Ref.String())
	}
	cliArgs = append(cliArgs, "--", program)
	cliArgs = append(cliArgs, args...)
	return secretstore.Command{Path: "vaultstore", Args: cliArgs, Env: []string{"VAULTSTORE_SESSION=" + token}}
}

type alwaysValid struct{}

func (alwaysValid) Validate(ctx context.Context, h session.Handle) bool { return true }

type neverValid struct{}

func (neverValid) Validate(ctx context.Context, h session.Handle) bool { return false }

func newTestBuilder(t *testing.T, client secretstore.Client, g *cleanup.Guarantor) *Builder {
	t.Helper()
	return NewBuilder(BuilderConfig{
		Client:    client,
		Sessions:  alwaysValid{},
		Guarantor: g,
		Logger:    logger.Discard,
		BridgeDir: t.TempDir(),
	})
}

func exportProfile() registry.Profile {
	return registry.Profile{
		Tool:     "aws",
		Strategy: registry.StrategyExport,
		Bindings: []secretstore.Binding{
			{Name: "AWS_ACCESS_KEY_ID", Ref: secretstore.MustParseRef("vault://infra/aws/access-key-id")},
			{Name: "AWS_SECRET_ACCESS_KEY", Ref: secretstore.MustParseRef("vault://infra/aws/secret-access-key")},
		},
	}
}

func bridgeProfile() registry.Profile {
	return registry.Profile{
		Tool:     "git",
		Strategy: registry.StrategyBridgeFile,
		Bindings: []secretstore.Binding{
			{Name: "GIT_ASKPASS", Ref: secretstore.MustParseRef("vault://dev/github/password")},
		},
	}
}

func TestBuildExportPassesArgsThroughUnchanged(t *testing.T) {
	client := &fakeClient{}
	b := newTestBuilder(t, client, cleanup.New(logger.Discard))

	inv, err := b.Build(context.Background(), exportProfile(), session.Handle{Token: "tok"}, []string{"s3", "ls", "--recursive"})
	require.NoError(t, err)

	assert.Equal(t, "vaultstore", inv.Path)
	assert.Equal(t, []string{
		"run",
		"--env", "AWS_ACCESS_KEY_ID=vault://infra/aws/access-key-id",
		"--env", "AWS_SECRET_ACCESS_KEY=vault://infra/aws/secret-access-key",
		"--", "aws", "s3", "ls", "--recursive",
	}, inv.Args)
	assert.Empty(t, inv.BridgePath)
	assert.Empty(t, client.reads, "export strategy must not resolve values in-process")
}

func TestBuildBridgeFileCreatesSingleUseArtifact(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{
		"vault://dev/github/password": "hunter2 with spaces & $pecials",
	}}
	g := cleanup.New(logger.Discard)
	b := newTestBuilder(t, client, g)

	inv, err := b.Build(context.Background(), bridgeProfile(), session.Handle{Token: "tok"}, []string{"push"})
	require.NoError(t, err)

	assert.Equal(t, "git", inv.Path)
	assert.Equal(t, []string{"push"}, inv.Args)
	require.NotEmpty(t, inv.BridgePath)
	assert.Equal(t, []string{"GIT_ASKPASS=" + inv.BridgePath}, inv.Env)

	info, err := os.Stat(inv.BridgePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	// The artifact's sole behaviour: print the embedded value and exit 0.
	out, err := exec.Command(inv.BridgePath).Output()
	require.NoError(t, err)
	assert.Equal(t, "hunter2 with spaces & $pecials\n", string(out))

	// Teardown was registered before Build returned.
	require.Equal(t, 1, g.Len())
	g.RunAll()
	_, statErr := os.Stat(inv.BridgePath)
	assert.True(t, os.IsNotExist(statErr))

	// Idempotent: no error or second deletion failure.
	g.RunAll()
}

func TestBuildRejectsInvalidSession(t *testing.T) {
	client := &fakeClient{}
	g := cleanup.New(logger.Discard)
	b := NewBuilder(BuilderConfig{
		Client:    client,
		Sessions:  neverValid{},
		Guarantor: g,
		Logger:    logger.Discard,
		BridgeDir: t.TempDir(),
	})

	_, err := b.Build(context.Background(), bridgeProfile(), session.Handle{Token: "tok"}, nil)
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, client.reads)
	assert.Equal(t, 0, g.Len())
}

func TestBuildBridgeFileResolutionFailure(t *testing.T) {
	client := &fakeClient{secrets: map[string]string{}}
	g := cleanup.New(logger.Discard)
	b := newTestBuilder(t, client, g)

	_, err := b.Build(context.Background(), bridgeProfile(), session.Handle{Token: "tok"}, nil)

	resErr := new(ResolutionError)
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "vault://dev/github/password", resErr.Ref.String())
	assert.Equal(t, 0, g.Len(), "nothing to tear down when resolution fails")
}

func TestRemoveBridgeArtifactIsIdempotent(t *testing.T) {
	path, err := writeBridgeArtifact(t.TempDir(), "s3cret")
	require.NoError(t, err)

	require.NoError(t, removeBridgeArtifact(path))
	require.NoError(t, removeBridgeArtifact(path))
}
