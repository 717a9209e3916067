// Package process probes and signals worker processes by pid.
package process

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// Table is the view of the OS process table the dashboard needs.
type Table interface {
	Alive(pid int) bool
	Terminate(pid int) error
}

// OS is the real process table.
type OS struct{}

// Alive reports whether a process with pid exists. Probe errors count as dead.
func (OS) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	if err != nil {
		return false
	}
	return ok
}

// Terminate sends SIGTERM. A process that is already gone is not an error.
func (OS) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}
