// ============================================================================
// LOCK-FREE ORDER MESSAGE RING QUEUE
// ============================================================================
//
// Bounded MPMC ring queue specialized to the fixed-size order message, used
// as the producer→worker transport of the matching benchmark.
//
// Core capabilities:
//   - Lock-free multi-producer/multi-consumer operation
//   - Fixed 32-byte payload moved by value, never by reference
//   - Power-of-2 sizing with bit masking for O(1) slot addressing
//   - Cache line isolation for enqueue/dequeue cursor separation
//
// Architecture overview:
//   - Per-slot sequence numbers arbitrate slot ownership
//   - Producers claim slots by CAS on the tail cursor
//   - Consumers claim slots by CAS on the head cursor
//   - Sequence stamps advance monotonically, so a stale claimant can never
//     mistake a recycled slot for its own (no ABA window)
//
// Memory ordering:
//   - Slot seq: acquire load before touching the payload, release store after
//   - Cursors: plain atomic RMW, ordering carried entirely by the slot seq
//
// Safety model:
//   - Full/empty are reported, never blocked on; callers spin or yield
//   - Clear is NOT concurrent-safe and must only run while quiescent
//
// The benchmark drives each ring single-producer/single-consumer. The MPMC
// protocol is kept anyway: it costs one CAS on an uncontended cursor and the
// queue stays correct if the harness ever shares a ring.

package orderring

import (
	"math/bits"
	"sync/atomic"

	"matchbench/types"
)

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// slot pairs one message payload with its sequence stamp.
//
// Sequence semantics for the slot at index i:
//   - seq == pos          : slot free, a producer at position pos may claim it
//   - seq == pos+1        : slot full, a consumer at position pos may claim it
//   - anything else       : another party owns the slot, reload and retry
//
// Consumers release a drained slot with seq = pos + capacity, handing it to
// the producer that will next wrap onto index i.
//
//go:notinheap
type slot struct {
	seq uint64    // Ownership stamp, see table above
	msg types.Msg // 32-byte payload, moved by copy
}

// Ring is the bounded queue. Enqueue and dequeue cursors live on separate
// cache lines so producer and consumer cores never false-share.
//
//go:notinheap
//go:align 64
type Ring struct {
	_    [64]byte // Isolation before the enqueue cursor
	tail uint64   // Next position a producer will claim

	_    [56]byte // Isolation between cursors
	head uint64   // Next position a consumer will claim

	_ [56]byte // Isolation after the dequeue cursor

	mask uint64 // Capacity - 1 for slot addressing
	step uint64 // Capacity, added to seq when a slot is recycled
	buf  []slot // Backing slot array
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

// New creates a ring with at least the requested capacity. Sizes that are not
// powers of two are rounded UP to the next power of two; the minimum usable
// capacity is 2. Callers that need the exact figure read Capacity().
//
//go:norace
//go:nocheckptr
func New(size int) *Ring {
	cap := uint64(2)
	if size > 2 {
		cap = 1 << (64 - bits.LeadingZeros64(uint64(size-1)))
	}

	r := &Ring{
		mask: cap - 1,
		step: cap,
		buf:  make([]slot, cap),
	}

	// Stamp every slot free for the first lap
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}

	return r
}

// ============================================================================
// PRODUCER OPERATIONS
// ============================================================================

// Push attempts to enqueue one message by copy. Returns false when the ring
// is full; the caller owns the retry policy.
//
// Algorithm:
//  1. Load the tail cursor and inspect the slot it addresses
//  2. seq == pos: CAS the cursor forward to claim the slot
//  3. seq <  pos: the slot still holds an unconsumed lap, ring is full
//  4. seq >  pos: another producer advanced the cursor first, reload
//  5. After a claim, copy the payload and release-store seq = pos + 1
//
//go:norace
//go:nocheckptr
//go:nosplit
func (r *Ring) Push(m *types.Msg) bool {
	pos := atomic.LoadUint64(&r.tail)
	for {
		s := &r.buf[pos&r.mask]
		seq := atomic.LoadUint64(&s.seq)
		dif := int64(seq) - int64(pos)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.tail, pos, pos+1) {
				s.msg = *m
				atomic.StoreUint64(&s.seq, pos+1)
				return true
			}
			pos = atomic.LoadUint64(&r.tail)
		case dif < 0:
			return false
		default:
			pos = atomic.LoadUint64(&r.tail)
		}
	}
}

// PushBatch enqueues messages in order until the ring fills. Returns how many
// were accepted; the tail of the slice past that count was not enqueued.
//
//go:norace
//go:nocheckptr
func (r *Ring) PushBatch(msgs []types.Msg) int {
	for i := range msgs {
		if !r.Push(&msgs[i]) {
			return i
		}
	}
	return len(msgs)
}

// ============================================================================
// CONSUMER OPERATIONS
// ============================================================================

// Pop attempts to dequeue the next message into *out. Returns false when the
// ring is empty.
//
// Mirror image of Push: the consumer expects seq == pos+1, claims by CAS on
// the head cursor, copies the payload out, then recycles the slot with
// seq = pos + capacity for the producer's next lap.
//
//go:norace
//go:nocheckptr
//go:nosplit
func (r *Ring) Pop(out *types.Msg) bool {
	pos := atomic.LoadUint64(&r.head)
	for {
		s := &r.buf[pos&r.mask]
		seq := atomic.LoadUint64(&s.seq)
		dif := int64(seq) - int64(pos+1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&r.head, pos, pos+1) {
				*out = s.msg
				atomic.StoreUint64(&s.seq, pos+r.step)
				return true
			}
			pos = atomic.LoadUint64(&r.head)
		case dif < 0:
			return false
		default:
			pos = atomic.LoadUint64(&r.head)
		}
	}
}

// PopBatch dequeues into buf until the ring drains or buf fills. Returns the
// number of messages written to the front of buf.
//
//go:norace
//go:nocheckptr
func (r *Ring) PopBatch(buf []types.Msg) int {
	for i := range buf {
		if !r.Pop(&buf[i]) {
			return i
		}
	}
	return len(buf)
}

// ============================================================================
// INTROSPECTION
// ============================================================================

// Size reports the current occupancy. Racy by nature under concurrent use;
// exact only while the ring is quiescent.
//
//go:nosplit
//go:inline
func (r *Ring) Size() int {
	return int(atomic.LoadUint64(&r.tail) - atomic.LoadUint64(&r.head))
}

// Capacity reports the fixed slot count chosen by New.
//
//go:nosplit
//go:inline
func (r *Ring) Capacity() int {
	return int(r.step)
}

// Empty reports whether the ring held no messages at the instant of the call.
//
//go:nosplit
//go:inline
func (r *Ring) Empty() bool {
	return r.Size() == 0
}

// Full reports whether the ring was at capacity at the instant of the call.
//
//go:nosplit
//go:inline
func (r *Ring) Full() bool {
	return r.Size() == int(r.step)
}

// Clear resets the ring to its freshly constructed state. ⚠️ Not thread-safe:
// callers must guarantee no producer or consumer touches the ring while this
// runs. Intended for reuse between benchmark passes.
func (r *Ring) Clear() {
	atomic.StoreUint64(&r.head, 0)
	atomic.StoreUint64(&r.tail, 0)
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
}
