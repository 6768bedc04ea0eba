//go:build linux

// Package cpu pins worker goroutines to CPU cores where the platform
// supports it.
package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinWorker locks the calling goroutine to an OS thread and pins that thread
// to a core derived from workerID. Returns a cleanup func to defer.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()

	core := workerID % runtime.NumCPU()
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)
	_ = unix.SchedSetaffinity(0, &mask) // 0 = current thread

	return runtime.UnlockOSThread
}
