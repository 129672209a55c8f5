//go:build windows

package supervisor

import "os"

// Windows has no graceful termination signal for arbitrary processes.
func stop(p *os.Process) error {
	return p.Kill()
}
