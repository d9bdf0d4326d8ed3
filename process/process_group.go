//go:build !windows

package process

import (
	"os"
	"syscall"
)

func (p *Process) setupProcessGroup() {
	p.command.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

func (p *Process) interruptProcessGroup() error {
	sig := p.conf.InterruptSignal
	if sig == Signal(0) {
		sig = SIGTERM
	}

	p.logger.Debug("[Process] Sending signal %v to PGID: %d", sig, p.pid)
	return syscall.Kill(-p.pid, syscall.Signal(sig))
}

func (p *Process) terminateProcessGroup() error {
	p.logger.Debug("[Process] Sending signal SIGKILL to PGID: %d", p.pid)
	return syscall.Kill(-p.pid, syscall.SIGKILL)
}

func (p *Process) signalProcessGroup(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.command.Process.Signal(sig)
	}

	p.logger.Debug("[Process] Sending signal %v to PGID: %d", s, p.pid)
	return syscall.Kill(-p.pid, s)
}
