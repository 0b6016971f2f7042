// stats.go — Shared run counters
// ============================================================================
// BENCHMARK COUNTER AGGREGATION
// ============================================================================
//
// One Counters instance is shared by the producer and every worker. Workers
// batch increments locally and flush with atomic adds, so the counters see
// one cross-core write per flush interval instead of one per message.
//
// Counter semantics over a complete run:
//   generated == pushed == popped
//   popped    == filled + resting + cancelled + rejected
//
// resting counts messages whose order was still on the book when dispatch
// returned; later fills or cancels do not retro-reclassify the message.

package stats

import (
	"sync/atomic"
	"time"
)

// ============================================================================
// TYPE DEFINITIONS
// ============================================================================

// Counters carries the shared run tallies. Fields are atomic; the wall-clock
// bounds are plain and written only by the orchestrator.
//
//go:align 64
type Counters struct {
	Generated uint64 // messages produced
	Pushed    uint64 // messages accepted by a ring
	Popped    uint64 // messages drained by workers
	Filled    uint64 // adds fully executed on entry
	Resting   uint64 // adds that left a resting order
	Cancelled uint64 // cancels that removed a live order
	Rejected  uint64 // adds rejected plus cancels that missed
	Trades    uint64 // engine fill events
	Volume    uint64 // engine filled quantity

	start time.Time
	end   time.Time
}

// Snapshot is a plain copy of the counters for reporting and export.
type Snapshot struct {
	Generated uint64  `json:"generated"`
	Pushed    uint64  `json:"pushed"`
	Popped    uint64  `json:"popped"`
	Filled    uint64  `json:"filled"`
	Resting   uint64  `json:"resting"`
	Cancelled uint64  `json:"cancelled"`
	Rejected  uint64  `json:"rejected"`
	Trades    uint64  `json:"trades"`
	Volume    uint64  `json:"volume"`
	Seconds   float64 `json:"seconds"`
}

// ============================================================================
// FLUSH OPERATIONS
// ============================================================================

// Add folds a worker's local tally into the shared counters. Plain atomic
// adds; ordering against ring traffic is irrelevant here.
//
//go:nosplit
func Add(dst *uint64, n uint64) {
	if n != 0 {
		atomic.AddUint64(dst, n)
	}
}

// ============================================================================
// WALL CLOCK
// ============================================================================

// Start records the run start time. Call before launching workers.
func (c *Counters) Start() {
	c.start = time.Now()
}

// Stop records the run end time. Call after the last worker joins.
func (c *Counters) Stop() {
	c.end = time.Now()
}

// Elapsed returns the wall-clock duration between Start and Stop.
func (c *Counters) Elapsed() time.Duration {
	return c.end.Sub(c.start)
}

// ============================================================================
// SNAPSHOT
// ============================================================================

// Snapshot copies the counters. Exact once all workers have joined; racy but
// monotone while a run is in flight.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Generated: atomic.LoadUint64(&c.Generated),
		Pushed:    atomic.LoadUint64(&c.Pushed),
		Popped:    atomic.LoadUint64(&c.Popped),
		Filled:    atomic.LoadUint64(&c.Filled),
		Resting:   atomic.LoadUint64(&c.Resting),
		Cancelled: atomic.LoadUint64(&c.Cancelled),
		Rejected:  atomic.LoadUint64(&c.Rejected),
		Trades:    atomic.LoadUint64(&c.Trades),
		Volume:    atomic.LoadUint64(&c.Volume),
		Seconds:   c.Elapsed().Seconds(),
	}
}
