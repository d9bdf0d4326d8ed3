//go:build !windows

package process_test

import (
	"bytes"
	"context"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultrun/vaultrun/logger"
	"github.com/vaultrun/vaultrun/process"
)

func TestProcessRunsAndCapturesOutput(t *testing.T) {
	stdout := &bytes.Buffer{}

	p := process.New(logger.Discard, process.Config{
		Path:   "/bin/sh",
		Args:   []string{"-c", "echo llamas"},
		Stdout: stdout,
	})

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, "llamas\n", stdout.String())
	assert.Equal(t, 0, p.ExitCode())
	assert.NoError(t, p.WaitResult())
}

func TestProcessReportsNonZeroExit(t *testing.T) {
	p := process.New(logger.Discard, process.Config{
		Path: "/bin/sh",
		Args: []string{"-c", "exit 24"},
	})

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 24, p.ExitCode())
	assert.Error(t, p.WaitResult())
}

func TestProcessInterrupt(t *testing.T) {
	p := process.New(logger.Discard, process.Config{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 60"},
	})

	go func() {
		<-p.Started()
		// Give the shell a moment to install its default handlers.
		time.Sleep(50 * time.Millisecond)
		_ = p.Interrupt()
	}()

	require.NoError(t, p.Run(context.Background()))

	status := p.WaitStatus()
	require.NotNil(t, status)
	assert.True(t, status.Signaled())
	assert.Equal(t, syscall.SIGTERM, status.Signal())
	assert.Equal(t, 128+int(syscall.SIGTERM), p.ExitCode())
}

func TestProcessRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := process.New(logger.Discard, process.Config{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 60"},
	})

	go func() {
		<-p.Started()
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, p.Run(ctx))

	status := p.WaitStatus()
	require.NotNil(t, status)
	assert.True(t, status.Signaled())
}

func TestProcessEnvIsExactlyWhatWasConfigured(t *testing.T) {
	stdout := &bytes.Buffer{}

	p := process.New(logger.Discard, process.Config{
		Path:   "/bin/sh",
		Args:   []string{"-c", "env"},
		Env:    []string{"LLAMAS=rock", "PATH=/usr/bin:/bin"},
		Stdout: stdout,
	})

	require.NoError(t, p.Run(context.Background()))

	assert.Contains(t, stdout.String(), "LLAMAS=rock")
	assert.NotContains(t, stdout.String(), "HOME=")
}

func TestFormatCommand(t *testing.T) {
	formatted := process.FormatCommand("git", []string{"push", "origin", "some branch"})
	assert.Equal(t, `git push origin "some branch"`, formatted)
}

func TestParseSignal(t *testing.T) {
	sig, err := process.ParseSignal("SIGTERM")
	require.NoError(t, err)
	assert.Equal(t, process.SIGTERM, sig)

	sig, err = process.ParseSignal("int")
	require.NoError(t, err)
	assert.Equal(t, process.SIGINT, sig)

	_, err = process.ParseSignal("SIGLLAMA")
	assert.Error(t, err)

	assert.True(t, strings.HasPrefix(process.SIGKILL.String(), "SIG"))
}
