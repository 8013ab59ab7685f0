//go:build !linux

package local

import "os"

// peakMemoryKB reports 0 on platforms without a KiB-denominated rusage.
func peakMemoryKB(_ *os.ProcessState) int64 {
	return 0
}
