//go:build darwin

package cpu

import "runtime"

// PinWorker locks the calling goroutine to an OS thread. Thread-to-core
// affinity is not available on macOS.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
