//go:build linux

package local

import (
	"os"
	"syscall"
)

// peakMemoryKB reports the reaped child's maximum resident set size in
// kibibytes. Memory accounting is advisory: any failure to sample reports
// 0 rather than an error.
func peakMemoryKB(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	usage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok || usage == nil {
		return 0
	}
	return usage.Maxrss
}
