//go:build windows

package eventlog

import (
	"os"
)

// Windows has no flock; exclusivity is best effort through the PID file.
func flockAcquire(file *os.File) error {
	return nil
}

func flockRelease(file *os.File) error {
	return nil
}

func isProcessRunning(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
