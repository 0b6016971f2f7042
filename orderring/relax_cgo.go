// ============================================================================
// SPIN-WAIT HINT
// ============================================================================
//
// CPURelax backs every busy-wait in the harness: ring push/pop retries, the
// producer's backpressure loop, and worker polling on an empty ring. It
// lowers to PAUSE on amd64 and YIELD on arm64, telling the core to idle the
// pipeline for a few cycles instead of hammering the load unit at full rate.

//go:build (amd64 || arm64) && cgo

package orderring

/*
#if defined(__x86_64__)
static inline void spin_hint(void) { __asm__ __volatile__("pause" ::: "memory"); }
#elif defined(__aarch64__)
static inline void spin_hint(void) { __asm__ __volatile__("yield" ::: "memory"); }
#endif
*/
import "C"

// CPURelax hints the core that the caller is in a spin loop.
func CPURelax() {
	C.spin_hint()
}
