// ============================================================================
// WORKER THREAD PINNING (LINUX)
// ============================================================================
//
// Thin wrapper over sched_setaffinity(2). Pinning happens once per worker at
// startup, never on the message path, so the mask is built on the fly and
// failures are reported to the caller instead of being swallowed.

//go:build linux && !tinygo

package orderring

import (
	"syscall"
	"unsafe"
)

// SetAffinity binds the calling OS thread to one CPU core. Pair with
// runtime.LockOSThread so the goroutine cannot migrate off the pinned
// thread. Cores beyond the first mask word are rejected; the harness caps
// its fan-out well below that.
func SetAffinity(cpu int) error {
	if cpu < 0 || cpu >= int(unsafe.Sizeof(uintptr(0))*8) {
		return syscall.EINVAL
	}
	mask := [1]uintptr{uintptr(1) << uint(cpu)}
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0, // current thread
		unsafe.Sizeof(mask[0]),
		uintptr(unsafe.Pointer(&mask[0])),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
