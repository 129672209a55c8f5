package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/netbench/benchrun/internal/common/util"
)

// State is the lifecycle state of a supervised process.
type State int

const (
	// Starting covers the span between exec and the first successful EnsureAlive.
	Starting State = iota
	Running
	Exited
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Exited:
		return "exited"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Process is a child process owned by a Supervisor.
type Process struct {
	Name string

	cmd     *exec.Cmd
	stdout  *os.File
	logFile *os.File
	done    chan struct{}

	mu       sync.Mutex
	state    State
	exitCode int
}

// Stdout returns the read end of the child's stdout pipe, or nil if the process was not started with PipeStdout.
// The caller must drain and close it; it stays readable after the child has been reaped.
func (p *Process) Stdout() io.ReadCloser {
	if p.stdout == nil {
		return nil
	}
	return p.stdout
}

// Done is closed once the child has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ExitCode returns the exit code and true once the process has exited.
// A process terminated by a signal reports -1.
func (p *Process) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.state == Exited
}

func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Process) markRunning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Starting {
		p.state = Running
	}
}

// reap waits for the child and releases everything except the stdout pipe, which belongs to the reader.
func (p *Process) reap() {
	_ = p.cmd.Wait()
	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	p.mu.Lock()
	p.state = Exited
	p.exitCode = code
	p.mu.Unlock()
	if p.logFile != nil {
		util.CloseResource(p.Name+" log", p.logFile)
	}
	close(p.done)
}
