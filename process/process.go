// Package process provides management of operating system processes.
//
// It is intended for internal use by vaultrun only.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/vaultrun/vaultrun/logger"
)

const defaultSignalGracePeriod = 9 * time.Second

// WaitStatus is the status of a process after it has exited. It is
// satisfied by syscall.WaitStatus on POSIX systems.
type WaitStatus interface {
	ExitStatus() int
	Signaled() bool
	Signal() syscall.Signal
}

// Config contains everything required to spawn a child process.
type Config struct {
	Path              string
	Args              []string
	Env               []string
	Dir               string
	Stdin             io.Reader
	Stdout            io.Writer
	Stderr            io.Writer
	InterruptSignal   Signal
	SignalGracePeriod time.Duration
}

// Process is a running process.
type Process struct {
	conf   Config
	logger logger.Logger

	command *exec.Cmd
	pid     int

	mu         sync.Mutex
	started    chan struct{}
	done       chan struct{}
	waitResult error
	status     WaitStatus
}

// New returns a new instance of Process
func New(l logger.Logger, c Config) *Process {
	return &Process{
		conf:    c,
		logger:  l,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run the command and block until it finishes, or the context is cancelled.
// On cancellation the child is interrupted, then terminated after the
// configured grace period.
func (p *Process) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.command != nil {
		p.mu.Unlock()
		return errors.New("process is already running")
	}

	p.command = exec.Command(p.conf.Path, p.conf.Args...)
	p.command.Env = p.conf.Env
	p.command.Dir = p.conf.Dir
	p.command.Stdin = p.conf.Stdin
	p.command.Stdout = p.conf.Stdout
	p.command.Stderr = p.conf.Stderr

	if p.command.Stdout == nil {
		p.command.Stdout = io.Discard
	}
	if p.command.Stderr == nil {
		p.command.Stderr = io.Discard
	}

	// Create a process group so that signals can be delivered to the whole
	// tree the child spawns, not just its root.
	p.setupProcessGroup()

	if err := p.command.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("starting %q: %w", p.conf.Path, err)
	}

	p.pid = p.command.Process.Pid
	close(p.started)
	p.mu.Unlock()

	p.logger.Debug("[Process] Started %q (pid %d)", p.conf.Path, p.pid)

	cancelled := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.logger.Debug("[Process] Context cancelled, interrupting pid %d", p.pid)
			if err := p.Interrupt(); err != nil {
				p.logger.Debug("[Process] Interrupt failed: %v", err)
			}
			grace := p.conf.SignalGracePeriod
			if grace <= 0 {
				grace = defaultSignalGracePeriod
			}
			select {
			case <-time.After(grace):
				if err := p.Terminate(); err != nil {
					p.logger.Debug("[Process] Terminate failed: %v", err)
				}
			case <-cancelled:
			}
		case <-cancelled:
		}
	}()

	err := p.command.Wait()
	close(cancelled)

	p.mu.Lock()
	p.waitResult = err
	if state := p.command.ProcessState; state != nil {
		if ws, ok := state.Sys().(WaitStatus); ok {
			p.status = ws
		}
	}
	close(p.done)
	p.mu.Unlock()

	p.logger.Debug("[Process] Process %d finished (%v)", p.pid, err)

	return nil
}

// Done returns a channel that is closed when the process finishes.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Started returns a channel that is closed when the process is started.
func (p *Process) Started() <-chan struct{} {
	return p.started
}

// Pid returns the pid of the running process, valid after Started.
func (p *Process) Pid() int {
	return p.pid
}

// WaitResult returns the raw error returned by waiting on the process.
// Notably, an exec.ExitError when the process exited non-zero.
func (p *Process) WaitResult() error {
	<-p.done
	return p.waitResult
}

// WaitStatus returns the WaitStatus of the finished process, or nil if it
// could not be determined.
func (p *Process) WaitStatus() WaitStatus {
	<-p.done
	return p.status
}

// ExitCode returns the exit code of the finished process. Processes killed
// by a signal report 128 plus the signal number, matching shell behaviour.
func (p *Process) ExitCode() int {
	<-p.done
	if p.waitResult == nil {
		return 0
	}
	if p.status != nil && p.status.Signaled() {
		return 128 + int(p.status.Signal())
	}
	exitErr := new(exec.ExitError)
	if errors.As(p.waitResult, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Interrupt sends the configured interrupt signal (SIGTERM if unset) to the
// process group.
func (p *Process) Interrupt() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.command == nil || p.command.Process == nil {
		p.logger.Debug("[Process] No process to interrupt yet")
		return nil
	}

	select {
	case <-p.done:
		// Already exited, nothing to signal.
		return nil
	default:
	}

	if err := p.interruptProcessGroup(); err != nil {
		p.logger.Error("[Process] Failed to interrupt process %d: %v", p.pid, err)
		return err
	}

	return nil
}

// Terminate forcibly stops the process group.
func (p *Process) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.command == nil || p.command.Process == nil {
		p.logger.Debug("[Process] No process to terminate yet")
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.terminateProcessGroup(); err != nil {
		p.logger.Error("[Process] Failed to terminate process %d: %v", p.pid, err)
		return err
	}

	return nil
}

// Signal sends sig to the process group.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.command == nil || p.command.Process == nil {
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	return p.signalProcessGroup(sig)
}
