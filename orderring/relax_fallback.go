// ============================================================================
// SPIN-WAIT HINT FALLBACK
// ============================================================================
//
// Covers architectures without a dedicated spin hint and builds with CGO
// disabled. Spin loops simply run hot; correctness is unaffected because
// every caller treats CPURelax as advisory.

//go:build (!amd64 && !arm64) || !cgo

package orderring

// CPURelax is a no-op here.
//
//go:nosplit
//go:inline
func CPURelax() {}
