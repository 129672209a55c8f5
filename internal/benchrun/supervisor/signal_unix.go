//go:build !windows

package supervisor

import (
	"os"
	"syscall"
)

func stop(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
