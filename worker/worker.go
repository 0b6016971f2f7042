// ============================================================================
// MATCHING WORKER
// ============================================================================
//
// One worker per ring, one engine per worker. The worker drains its ring in
// batches, dispatches each message to its private engine, and classifies the
// outcome into local counters that flush to the shared tallies at a coarse
// interval.
//
// Threading model:
//   - The dispatch loop runs on a locked OS thread; with pinning enabled the
//     thread is bound to the core matching the worker id
//   - The engine and handle map are worker-private, nothing here locks
//
// Handle translation:
//   - A resting add is recorded as client_id (low 32 bits) → engine handle
//   - A cancel resolves the producer's synthetic handle through that map;
//     a miss means the add never rested (filled on entry or rejected) and
//     counts as rejected
//   - Entries are not removed when a resting order later fills, so a hit
//     can be stale: if the engine handle is no longer live the engine
//     cancel fails and the message counts rejected; if the engine has
//     reissued that handle to a newer order, that order is cancelled. The
//     entry is dropped after any hit
//
// Termination:
//   - Exit requires the done flag (acquire) AND an empty ring, in that
//     order, so no message can be stranded behind the flag

package worker

import (
	"runtime"

	"matchbench/constants"
	"matchbench/control"
	"matchbench/debug"
	"matchbench/engine"
	"matchbench/handlemap"
	"matchbench/orderring"
	"matchbench/stats"
	"matchbench/types"
)

// Worker owns one ring, one engine, and the synthetic-handle translation map.
type Worker struct {
	ID       int
	Ring     *orderring.Ring
	Engine   *engine.Engine
	counters *stats.Counters
	handles  handlemap.Map
	pin      bool
}

// New builds a worker over its ring. The engine and handle map are created
// here so their ownership never leaves the worker.
func New(id int, ring *orderring.Ring, counters *stats.Counters, pin bool) *Worker {
	return &Worker{
		ID:       id,
		Ring:     ring,
		Engine:   engine.New(constants.MaxTicks, constants.MaxOrders),
		counters: counters,
		handles:  handlemap.New(constants.MaxOrders),
		pin:      pin,
	}
}

// Run is the dispatch loop. Call on its own goroutine; returns after the
// producer signals done and the ring is drained, or on abort. done is closed
// on exit so the orchestrator can join.
func (w *Worker) Run(done chan<- struct{}) {
	defer close(done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if w.pin {
		if err := orderring.SetAffinity(w.ID); err != nil {
			debug.DropError("worker pin", err)
		}
	}

	batch := make([]types.Msg, constants.BatchSize)

	var popped, filled, resting, cancelled, rejected uint64

	for {
		if control.Aborted() {
			break
		}
		if control.Done() && w.Ring.Empty() {
			break
		}

		n := w.Ring.PopBatch(batch)
		if n == 0 {
			if control.Done() && w.Ring.Empty() {
				break
			}
			orderring.CPURelax()
			continue
		}

		for i := 0; i < n; i++ {
			msg := &batch[i]
			popped++

			switch msg.Type {
			case types.MsgAdd:
				res := w.Engine.AddLimit(msg)
				switch res {
				case engine.NIL:
					rejected++
				case engine.DoneFill:
					filled++
				default:
					resting++
					w.handles.Put(uint32(msg.ClientID), res)
				}

			case types.MsgCancel:
				eh, ok := w.handles.Get(msg.HandleToCancel)
				if !ok {
					// the add never rested, nothing to cancel
					rejected++
					break
				}
				if w.Engine.Cancel(eh) {
					cancelled++
				} else {
					rejected++
				}
				w.handles.Del(msg.HandleToCancel)

			default:
				rejected++
			}
		}

		if popped >= constants.StatsFlushInterval {
			w.flush(&popped, &filled, &resting, &cancelled, &rejected)
		}
	}

	w.flush(&popped, &filled, &resting, &cancelled, &rejected)
}

// flush folds the local tallies into the shared counters and zeroes them.
func (w *Worker) flush(popped, filled, resting, cancelled, rejected *uint64) {
	stats.Add(&w.counters.Popped, *popped)
	stats.Add(&w.counters.Filled, *filled)
	stats.Add(&w.counters.Resting, *resting)
	stats.Add(&w.counters.Cancelled, *cancelled)
	stats.Add(&w.counters.Rejected, *rejected)
	*popped, *filled, *resting, *cancelled, *rejected = 0, 0, 0, 0, 0
}

// LiveOrders reports how many synthetic handles still map to engine handles.
func (w *Worker) LiveOrders() int {
	return w.handles.Len()
}
