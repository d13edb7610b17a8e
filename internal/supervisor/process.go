// Package supervisor launches a server process, verifies it becomes
// ready within a bounded polling window, and tracks it to completion so
// its exit code can be forwarded to the caller.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

var (
	ErrNoCommand      = errors.New("no command given")
	ErrCommandMissing = errors.New("command not found in PATH")
)

// Spec describes the process to launch.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string

	// Stdout/Stderr default to the supervisor's own streams so the
	// child's output stays visible.
	Stdout io.Writer
	Stderr io.Writer
}

// Process is the owned handle for a single supervised child. Exactly one
// exists per supervisor invocation; all lifecycle queries go through it.
type Process struct {
	cmd       *exec.Cmd
	pid       int
	startTime time.Time

	done     chan struct{}
	exitCode int
}

// Launch resolves and starts the target in the background. A missing
// executable is an environment failure and aborts before any launch.
func Launch(spec Spec) (*Process, error) {
	if spec.Command == "" {
		return nil, ErrNoCommand
	}

	path, err := exec.LookPath(spec.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCommandMissing, spec.Command)
	}

	cmd := exec.Command(path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	cmd.Stdout = spec.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = spec.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Command, err)
	}

	p := &Process{
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// reap collects the child's termination status exactly once.
func (p *Process) reap() {
	err := p.cmd.Wait()

	code := 0
	if state := p.cmd.ProcessState; state != nil {
		code = state.ExitCode()
		// Signal deaths map to the shell convention of 128+signal so
		// the forwarded code stays meaningful to orchestrators.
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
	} else if err != nil {
		code = 1
	}

	p.exitCode = code
	close(p.done)
}

func (p *Process) PID() int {
	return p.pid
}

func (p *Process) StartTime() time.Time {
	return p.startTime
}

// Alive reports whether the child has not yet terminated.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done is closed once the child has terminated.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the child terminates and returns its exit code.
func (p *Process) Wait() int {
	<-p.done
	return p.exitCode
}

// Signal forwards sig to the child; used to relay SIGINT/SIGTERM so an
// interactive stop reaches the server before the supervisor exits.
func (p *Process) Signal(sig os.Signal) error {
	if !p.Alive() {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}
