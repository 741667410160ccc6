//go:build !darwin && !linux

package scheduler

import "fmt"

// totalSystemRAM is unsupported on this platform.
func totalSystemRAM() (uint64, error) {
	return 0, fmt.Errorf("scheduler: unsupported platform for RAM detection")
}
