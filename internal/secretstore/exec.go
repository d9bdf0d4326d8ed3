package secretstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vaultrun/vaultrun/logger"
	"github.com/vaultrun/vaultrun/process"
)

// SessionEnvVar is the environment variable the store CLI reads its
// session token from. Tokens are passed in the environment rather than on
// argv so they never show up in process listings.
const SessionEnvVar = "VAULTSTORE_SESSION"

// DefaultCLI is the store CLI binary looked up on PATH when no explicit
// path is configured.
const DefaultCLI = "vaultstore"

// ExecClient talks to the secret store by shelling out to its CLI.
type ExecClient struct {
	// CLI is the path to (or name of) the store CLI binary.
	CLI string

	// Stdin and Prompt are the streams attached to interactive sign-in.
	// They default to the calling process's own.
	Stdin  io.Reader
	Prompt io.Writer

	Logger logger.Logger
}

// NewExecClient returns an ExecClient bound to the given CLI binary. An
// empty cli selects DefaultCLI.
func NewExecClient(l logger.Logger, cli string) *ExecClient {
	if cli == "" {
		cli = DefaultCLI
	}
	if l == nil {
		l = logger.Discard
	}
	return &ExecClient{
		CLI:    cli,
		Stdin:  os.Stdin,
		Prompt: os.Stderr,
		Logger: l,
	}
}

// SignIn establishes a session. Interactively it runs the CLI's signin
// command with the terminal attached, capturing the token it prints.
// Non-interactively it verifies the supplied service token and returns it
// unchanged.
func (c *ExecClient) SignIn(ctx context.Context, req SignInRequest) (string, error) {
	if !req.Interactive {
		if err := c.Verify(ctx, req.ServiceToken); err != nil {
			return "", err
		}
		return req.ServiceToken, nil
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	p := process.New(c.Logger, process.Config{
		Path:   c.CLI,
		Args:   []string{"signin", "--raw"},
		Env:    os.Environ(),
		Stdin:  c.Stdin,
		Stdout: stdout,
		Stderr: io.MultiWriter(c.Prompt, stderr),
	})

	if err := p.Run(ctx); err != nil {
		return "", fmt.Errorf("store sign-in: %w", err)
	}
	if err := p.WaitResult(); err != nil {
		return "", fmt.Errorf("store rejected sign-in: %s", storeReason(stderr, err))
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", fmt.Errorf("store sign-in succeeded but returned no session token")
	}

	return token, nil
}

// Verify is a live round trip to the store: it does not guess at cached
// freshness.
func (c *ExecClient) Verify(ctx context.Context, token string) error {
	stderr := &bytes.Buffer{}

	p := process.New(c.Logger, process.Config{
		Path:   c.CLI,
		Args:   []string{"whoami"},
		Env:    c.sessionEnv(token),
		Stderr: stderr,
	})

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("store verify: %w", err)
	}
	if err := p.WaitResult(); err != nil {
		return fmt.Errorf("store rejected session: %s", storeReason(stderr, err))
	}

	return nil
}

func (c *ExecClient) SignOut(ctx context.Context, token string) error {
	stderr := &bytes.Buffer{}

	p := process.New(c.Logger, process.Config{
		Path:   c.CLI,
		Args:   []string{"signout"},
		Env:    c.sessionEnv(token),
		Stderr: stderr,
	})

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("store sign-out: %w", err)
	}
	if err := p.WaitResult(); err != nil {
		return fmt.Errorf("store sign-out failed: %s", storeReason(stderr, err))
	}

	return nil
}

// Read resolves one secret value. The value is returned to the caller and
// deliberately never logged.
func (c *ExecClient) Read(ctx context.Context, token string, ref Ref) (string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	c.Logger.Debug("[SecretStore] Reading %s", ref)

	p := process.New(c.Logger, process.Config{
		Path:   c.CLI,
		Args:   []string{"read", ref.String()},
		Env:    c.sessionEnv(token),
		Stdout: stdout,
		Stderr: stderr,
	})

	if err := p.Run(ctx); err != nil {
		return "", fmt.Errorf("store read %s: %w", ref, err)
	}
	if err := p.WaitResult(); err != nil {
		return "", fmt.Errorf("store could not read %s: %s", ref, storeReason(stderr, err))
	}

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// ExportCommand builds the CLI's run invocation: the store resolves each
// binding inside the spawned subprocess, so the values never pass through
// vaultrun.
func (c *ExecClient) ExportCommand(token string, bindings []Binding, program string, args ...string) Command {
	cliArgs := []string{"run"}
	for _, b := range bindings {
		cliArgs = append(cliArgs, "--env", b.Name+"="+b.Ref.String())
	}
	cliArgs = append(cliArgs, "--", program)
	cliArgs = append(cliArgs, args...)

	return Command{
		Path: c.CLI,
		Args: cliArgs,
		Env:  []string{SessionEnvVar + "=" + token},
	}
}

func (c *ExecClient) sessionEnv(token string) []string {
	environ := os.Environ()
	if token != "" {
		environ = append(environ, SessionEnvVar+"="+token)
	}
	return environ
}

// storeReason reduces a failed store CLI call to a single printable
// reason, preferring whatever the CLI wrote to stderr.
func storeReason(stderr *bytes.Buffer, err error) string {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		// Only the first line: store CLIs tend to follow errors with usage.
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		return msg
	}
	return err.Error()
}
