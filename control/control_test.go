// ============================================================================
// RUN CONTROL VALIDATION SUITE
// ============================================================================
//
// Unit tests for the shared lifecycle flags.
//
// Test categories:
//   - Flag lifecycle: Set, observe, rearm
//   - Independence: Done and abort do not couple
//   - Visibility: The done flag publishes prior stores to another goroutine

package control

import (
	"sync/atomic"
	"testing"
)

// TestDoneLifecycle validates the one-shot done flag and its rearm.
func TestDoneLifecycle(t *testing.T) {
	Reset()

	if Done() {
		t.Fatal("done set before any signal")
	}
	SignalDone()
	if !Done() {
		t.Fatal("done not observed after signal")
	}
	SignalDone() // idempotent
	if !Done() {
		t.Fatal("done lost after repeated signal")
	}

	Reset()
	if Done() {
		t.Fatal("done survived Reset")
	}
}

// TestAbortLifecycle validates the abort flag and its rearm.
func TestAbortLifecycle(t *testing.T) {
	Reset()

	if Aborted() {
		t.Fatal("abort set before any request")
	}
	Abort()
	if !Aborted() {
		t.Fatal("abort not observed after request")
	}

	Reset()
	if Aborted() {
		t.Fatal("abort survived Reset")
	}
}

// TestFlagsAreIndependent validates that neither flag implies the other.
func TestFlagsAreIndependent(t *testing.T) {
	Reset()

	SignalDone()
	if Aborted() {
		t.Fatal("done leaked into abort")
	}

	Reset()
	Abort()
	if Done() {
		t.Fatal("abort leaked into done")
	}
}

// TestDonePublishesPriorStores validates the release/acquire pairing the
// drain protocol depends on: a value written before SignalDone must be
// visible to a goroutine that observes Done.
func TestDonePublishesPriorStores(t *testing.T) {
	Reset()

	var payload uint64
	observed := make(chan uint64)

	go func() {
		for !Done() {
		}
		observed <- atomic.LoadUint64(&payload)
	}()

	atomic.StoreUint64(&payload, 42)
	SignalDone()

	if got := <-observed; got != 42 {
		t.Fatalf("observer saw payload %d after done, want 42", got)
	}

	Reset()
}
