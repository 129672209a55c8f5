// Package supervisor starts child processes and guarantees they are torn down.
package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

const DefaultTerminateTimeout = 3 * time.Second

type StartOptions struct {
	Name string
	Argv []string
	// Env is appended to the environment of the current process.
	Env []string
	Dir string
	// LogPath receives stdout and stderr of the child. Output is discarded when empty.
	LogPath string
	// PipeStdout makes stdout available through Process.Stdout instead of LogPath.
	PipeStdout bool
}

// Supervisor tracks every process it starts so that ShutdownAll can stop them in reverse order.
type Supervisor struct {
	log              *log.Entry
	clock            clock.Clock
	terminateTimeout time.Duration

	mu        sync.Mutex
	processes []*Process
}

func New(logger *log.Entry, clk clock.Clock, terminateTimeout time.Duration) *Supervisor {
	if terminateTimeout <= 0 {
		terminateTimeout = DefaultTerminateTimeout
	}
	return &Supervisor{
		log:              logger,
		clock:            clk,
		terminateTimeout: terminateTimeout,
	}
}

func (s *Supervisor) Start(opts StartOptions) (*Process, error) {
	if len(opts.Argv) == 0 {
		return nil, errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "argv",
			Value:   opts.Name,
			Message: "no command given",
		})
	}
	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	p := &Process{
		Name: opts.Name,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	if opts.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogPath), 0o755); err != nil {
			return nil, errors.WithStack(err)
		}
		f, err := os.Create(opts.LogPath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		p.logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	// An *os.File is handed to the child as is, so Wait never closes the read end
	// and the reader can drain everything the child wrote before exiting.
	var writeEnd *os.File
	if opts.PipeStdout {
		r, w, err := os.Pipe()
		if err != nil {
			p.closeFiles()
			return nil, errors.WithStack(err)
		}
		p.stdout = r
		writeEnd = w
		cmd.Stdout = w
	}

	if err := cmd.Start(); err != nil {
		if writeEnd != nil {
			_ = writeEnd.Close()
		}
		p.closeFiles()
		return nil, errors.Wrapf(err, "starting %s", opts.Name)
	}
	if writeEnd != nil {
		_ = writeEnd.Close()
	}
	go p.reap()

	s.mu.Lock()
	s.processes = append(s.processes, p)
	s.mu.Unlock()

	s.log.WithField("process", opts.Name).WithField("pid", cmd.Process.Pid).Debugf("started %v", opts.Argv)
	return p, nil
}

// EnsureAlive returns ErrProcessExitedEarly if p has already exited, and otherwise marks it running.
func (s *Supervisor) EnsureAlive(p *Process) error {
	if p.exited() {
		code, _ := p.ExitCode()
		return errors.WithStack(&runerrors.ErrProcessExitedEarly{Name: p.Name, Code: code})
	}
	p.markRunning()
	return nil
}

// Terminate asks p to stop, waits up to timeout, then kills it and waits up to timeout again.
// A process that has already exited is not signalled.
func (s *Supervisor) Terminate(p *Process, timeout time.Duration) error {
	if p.exited() {
		return nil
	}
	logger := s.log.WithField("process", p.Name)
	logger.Debug("terminating")
	if err := stop(p.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.WithError(err).Debug("graceful stop failed")
	}
	if s.wait(p, timeout) {
		return nil
	}

	logger.Debugf("still running after %s; killing", timeout)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "killing %s", p.Name)
	}
	if s.wait(p, timeout) {
		return nil
	}
	return errors.Errorf("%s did not exit within %s of being killed", p.Name, timeout)
}

func (s *Supervisor) wait(p *Process, timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-s.clock.After(timeout):
		return false
	}
}

// ShutdownAll terminates every tracked process, most recently started first.
// The tracked set is cleared, so calling it again is a no-op. Errors are aggregated and meant for logging only.
func (s *Supervisor) ShutdownAll() error {
	s.mu.Lock()
	processes := s.processes
	s.processes = nil
	s.mu.Unlock()

	var result *multierror.Error
	for i := len(processes) - 1; i >= 0; i-- {
		if err := s.Terminate(processes[i], s.terminateTimeout); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (p *Process) closeFiles() {
	if p.logFile != nil {
		_ = p.logFile.Close()
	}
	if p.stdout != nil {
		_ = p.stdout.Close()
	}
}
