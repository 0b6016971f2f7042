// control.go — Run lifecycle flags shared by the producer and workers
// ============================================================================
// RUN CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides the two global signals that coordinate a
// benchmark run: the one-shot producer-done flag and an external abort flag.
//
// Architecture overview:
//   • producer_done: release-store by the producer after its final push,
//     acquire-load by draining workers
//   • stop: external abort, checked by workers between batches
//   • Zero-allocation flag access for hot path performance
//
// Threading model:
//   • Exactly one producer sets done, exactly once per run
//   • Workers check Done() first and then whether their ring is empty;
//     the done+empty conjunction is the termination condition
//   • Reset() rearms both flags between benchmark passes (quiescent only)
//
// Safety guarantees:
//   • Release/acquire pairing orders the final Push before the done store,
//     so a worker that sees done and then an empty ring has seen every
//     message

package control

import "sync/atomic"

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	producerDone uint32 // 1 = producer finished its final push
	stop         uint32 // 1 = abort requested, workers exit without draining
)

// ============================================================================
// PRODUCER SIGNALING
// ============================================================================

// SignalDone publishes that the producer has pushed its last message.
// Release semantics: every ring store issued before this call is visible to
// any worker that observes the flag.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func SignalDone() {
	atomic.StoreUint32(&producerDone, 1)
}

// Done reports whether the producer has finished. Acquire semantics pair
// with SignalDone.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Done() bool {
	return atomic.LoadUint32(&producerDone) == 1
}

// ============================================================================
// EXTERNAL ABORT
// ============================================================================

// Abort requests early termination. Workers stop dispatching at the next
// batch boundary without draining their rings.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Abort() {
	atomic.StoreUint32(&stop, 1)
}

// Aborted reports whether an abort was requested.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Aborted() bool {
	return atomic.LoadUint32(&stop) == 1
}

// ============================================================================
// RUN REARM
// ============================================================================

// Reset rearms both flags for a fresh run. Not safe while a run is active.
func Reset() {
	atomic.StoreUint32(&producerDone, 0)
	atomic.StoreUint32(&stop, 0)
}
