//go:build linux

package local

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr places the child in its own process group and ties its
// lifetime to the supervisor's.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

// killProcessGroup sends SIGKILL to the child's entire process group.
// Killing an already-exited group is a no-op.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = unix.Kill(-pid, unix.SIGKILL)
}
