// ============================================================================
// WORKER THREAD PINNING STUB
// ============================================================================

//go:build !linux || tinygo

package orderring

// SetAffinity succeeds without pinning on platforms that lack
// sched_setaffinity(2); the OS scheduler places the thread freely.
func SetAffinity(cpu int) error { return nil }
