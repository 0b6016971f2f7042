// ============================================================================
// ORDER RING CORRECTNESS VALIDATION SUITE
// ============================================================================
//
// Unit tests for the bounded MPMC order message ring.
//
// Test categories:
//   - Constructor validation: Round-up sizing and sequence initialization
//   - Basic operations: Push/Pop semantics and payload integrity
//   - Capacity management: Full/empty boundary behavior
//   - Wraparound logic: Cursor arithmetic across many laps
//   - Batch operations: Partial acceptance on full/empty rings
//   - Reuse: Clear rearms the ring for a fresh run

package orderring

import (
	"fmt"
	"testing"

	"matchbench/types"
)

// ============================================================================
// TEST UTILITIES AND HELPERS
// ============================================================================

// testMsg builds a deterministic payload keyed by seq.
func testMsg(seq uint64) types.Msg {
	return types.Msg{
		ClientID:       seq,
		PriceTick:      uint32(seq % 32768),
		Qty:            uint32(seq%9) + 1,
		Side:           uint8(seq % 2),
		Type:           types.MsgAdd,
		WorkerID:       uint32(seq % 8),
		HandleToCancel: uint32(seq),
	}
}

// mustPop pops one message or fails the test.
func mustPop(t *testing.T, r *Ring) types.Msg {
	t.Helper()
	var m types.Msg
	if !r.Pop(&m) {
		t.Fatal("Pop failed on non-empty ring")
	}
	return m
}

// ============================================================================
// CONSTRUCTOR VALIDATION
// ============================================================================

// TestNewRoundsUpToPowerOfTwo validates the size round-up contract.
func TestNewRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-4, 2}, {0, 2}, {1, 2}, {2, 2},
		{3, 4}, {4, 4}, {5, 8}, {7, 8}, {8, 8},
		{9, 16}, {1000, 1024}, {1024, 1024}, {1025, 2048},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("size_%d", c.in), func(t *testing.T) {
			r := New(c.in)
			if r.Capacity() != c.want {
				t.Fatalf("New(%d).Capacity() = %d, want %d", c.in, r.Capacity(), c.want)
			}
			if r.mask != uint64(c.want-1) {
				t.Errorf("mask = %d, want %d", r.mask, c.want-1)
			}
			for i := range r.buf {
				if r.buf[i].seq != uint64(i) {
					t.Fatalf("buf[%d].seq = %d, want %d", i, r.buf[i].seq, i)
				}
			}
		})
	}
}

// ============================================================================
// BASIC OPERATIONS
// ============================================================================

// TestPushPopRoundTrip validates payload integrity through the ring.
func TestPushPopRoundTrip(t *testing.T) {
	r := New(8)

	in := testMsg(42)
	if !r.Push(&in) {
		t.Fatal("Push failed on empty ring")
	}
	if r.Size() != 1 {
		t.Fatalf("Size = %d after one push, want 1", r.Size())
	}

	out := mustPop(t, r)
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if !r.Empty() {
		t.Fatal("ring not empty after draining")
	}
}

// TestPopEmptyReturnsFalse validates the empty-ring contract.
func TestPopEmptyReturnsFalse(t *testing.T) {
	r := New(4)
	var m types.Msg
	if r.Pop(&m) {
		t.Fatal("Pop succeeded on empty ring")
	}
}

// TestFIFOOrder validates first-in-first-out delivery.
func TestFIFOOrder(t *testing.T) {
	r := New(16)
	for i := uint64(0); i < 16; i++ {
		m := testMsg(i)
		if !r.Push(&m) {
			t.Fatalf("Push %d failed", i)
		}
	}
	for i := uint64(0); i < 16; i++ {
		got := mustPop(t, r)
		if got.ClientID != i {
			t.Fatalf("pop %d returned ClientID %d", i, got.ClientID)
		}
	}
}

// ============================================================================
// CAPACITY MANAGEMENT
// ============================================================================

// TestCapacityBoundary validates the exact full/empty transition: four
// pushes into a 4-slot ring succeed, the fifth fails, and one pop reopens
// exactly one slot.
func TestCapacityBoundary(t *testing.T) {
	r := New(4)

	for i := uint64(0); i < 4; i++ {
		m := testMsg(i)
		if !r.Push(&m) {
			t.Fatalf("push %d failed below capacity", i)
		}
	}
	if !r.Full() {
		t.Fatal("ring not full after capacity pushes")
	}

	overflow := testMsg(99)
	if r.Push(&overflow) {
		t.Fatal("push succeeded on full ring")
	}

	_ = mustPop(t, r)

	refill := testMsg(100)
	if !r.Push(&refill) {
		t.Fatal("push failed after one pop freed a slot")
	}
}

// ============================================================================
// WRAPAROUND LOGIC
// ============================================================================

// TestWraparound cycles the ring far past its capacity and verifies data
// integrity and ordering on every lap.
func TestWraparound(t *testing.T) {
	r := New(8)
	const laps = 1000

	for i := uint64(0); i < laps*8; i++ {
		m := testMsg(i)
		if !r.Push(&m) {
			t.Fatalf("push %d failed", i)
		}
		got := mustPop(t, r)
		if got != m {
			t.Fatalf("lap %d: got %+v, want %+v", i/8, got, m)
		}
	}
	if !r.Empty() {
		t.Fatal("ring not empty after balanced traffic")
	}
}

// ============================================================================
// BATCH OPERATIONS
// ============================================================================

// TestPushBatchPartial validates that a batch stops at the first full slot.
func TestPushBatchPartial(t *testing.T) {
	r := New(4)

	msgs := make([]types.Msg, 6)
	for i := range msgs {
		msgs[i] = testMsg(uint64(i))
	}

	n := r.PushBatch(msgs)
	if n != 4 {
		t.Fatalf("PushBatch accepted %d, want 4", n)
	}
	if !r.Full() {
		t.Fatal("ring not full after saturating batch")
	}
}

// TestPopBatchPartial validates that a drain stops at the first empty slot.
func TestPopBatchPartial(t *testing.T) {
	r := New(8)
	for i := uint64(0); i < 3; i++ {
		m := testMsg(i)
		r.Push(&m)
	}

	buf := make([]types.Msg, 8)
	n := r.PopBatch(buf)
	if n != 3 {
		t.Fatalf("PopBatch drained %d, want 3", n)
	}
	for i := 0; i < n; i++ {
		if buf[i].ClientID != uint64(i) {
			t.Fatalf("batch slot %d holds ClientID %d", i, buf[i].ClientID)
		}
	}
	if !r.Empty() {
		t.Fatal("ring not empty after full drain")
	}
}

// TestBatchRoundTrip moves a large stream through batch ops only.
func TestBatchRoundTrip(t *testing.T) {
	r := New(64)
	const total = 10_000

	src := make([]types.Msg, total)
	for i := range src {
		src[i] = testMsg(uint64(i))
	}

	buf := make([]types.Msg, 32)
	sent, received := 0, 0
	next := uint64(0)
	for received < total {
		sent += r.PushBatch(src[sent:min(sent+32, total)])
		n := r.PopBatch(buf)
		for i := 0; i < n; i++ {
			if buf[i].ClientID != next {
				t.Fatalf("out of order: got %d, want %d", buf[i].ClientID, next)
			}
			next++
		}
		received += n
	}
	if sent != total {
		t.Fatalf("sent %d, want %d", sent, total)
	}
}

// ============================================================================
// REUSE
// ============================================================================

// TestClearRearmsRing validates that Clear restores the constructed state.
func TestClearRearmsRing(t *testing.T) {
	r := New(8)
	for i := uint64(0); i < 5; i++ {
		m := testMsg(i)
		r.Push(&m)
	}
	mustPop(t, r)

	r.Clear()

	if !r.Empty() || r.Size() != 0 {
		t.Fatal("ring not empty after Clear")
	}
	for i := range r.buf {
		if r.buf[i].seq != uint64(i) {
			t.Fatalf("buf[%d].seq = %d after Clear, want %d", i, r.buf[i].seq, i)
		}
	}

	// full capacity must be usable again
	for i := uint64(0); i < 8; i++ {
		m := testMsg(100 + i)
		if !r.Push(&m) {
			t.Fatalf("push %d failed after Clear", i)
		}
	}
	for i := uint64(0); i < 8; i++ {
		got := mustPop(t, r)
		if got.ClientID != 100+i {
			t.Fatalf("post-Clear pop %d returned ClientID %d", i, got.ClientID)
		}
	}
}
