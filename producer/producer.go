// ============================================================================
// ORDER STREAM PRODUCER
// ============================================================================
//
// Generates the benchmark's synthetic order flow and feeds it to the worker
// rings. One producer per run; it owns the PRNG, the round-robin routing
// cursor, and the per-worker lists of synthetic handles eligible for
// cancellation.
//
// Determinism:
//   - A fixed seed replays the identical message stream, routing included
//   - Cancel victims are drawn from the same PRNG as the order fields, so
//     the whole stream is one deterministic function of the seed
//
// Backpressure:
//   - A full ring is retried with pause hints; after the spin budget the
//     producer yields the OS thread and the budget rearms
//
// Completion:
//   - After the final push the producer flushes its counters and publishes
//     the done flag with release semantics, ordering every ring store before
//     the flag for draining workers

package producer

import (
	"math/rand/v2"
	"runtime"

	"matchbench/config"
	"matchbench/constants"
	"matchbench/control"
	"matchbench/orderring"
	"matchbench/stats"
	"matchbench/types"
	"matchbench/utils"
)

// Producer drives one benchmark run's order stream.
type Producer struct {
	rings    []*orderring.Ring
	cfg      config.Config
	counters *stats.Counters

	rng *rand.Rand
	cur uint32 // round-robin routing cursor

	// synthetic handles of orders believed live, per worker
	active [][]uint32
}

// New builds a producer over the worker rings. The PRNG is PCG seeded from
// the config; the second stream word is a whitened copy of the first so the
// generator state never starts degenerate.
func New(rings []*orderring.Ring, cfg config.Config, counters *stats.Counters) *Producer {
	seed := cfg.EffectiveSeed()
	active := make([][]uint32, len(rings))
	for i := range active {
		active[i] = make([]uint32, 0, 1024)
	}
	return &Producer{
		rings:    rings,
		cfg:      cfg,
		counters: counters,
		rng:      rand.New(rand.NewPCG(seed, utils.Mix64(seed))),
		active:   active,
	}
}

// Run generates and pushes the full configured stream, then signals done.
// Blocks until every message has been accepted by a ring.
func (p *Producer) Run() {
	const mid = uint32(constants.MaxTicks / 2)
	span := int32(p.cfg.SpanTicks)

	var generated, pushed uint64

	for i := uint64(0); i < p.cfg.NumOrders; i++ {
		side := uint8(p.rng.Uint32N(2))
		qty := 1 + p.rng.Uint32N(p.cfg.MaxQty)
		off := p.rng.Int32N(2*span+1) - span
		px := clampTick(int32(mid) + off)

		target := p.cur
		p.cur++
		if p.cur >= uint32(len(p.rings)) {
			p.cur = 0
		}

		msg := types.Msg{
			ClientID:  i + 1,
			PriceTick: px,
			Qty:       qty,
			Side:      side,
			Type:      types.MsgAdd,
			WorkerID:  target,
		}

		cancel := p.cfg.CancelEvery > 0 &&
			i%p.cfg.CancelEvery == 0 &&
			i > 0 &&
			len(p.active[target]) > 0

		if cancel {
			list := p.active[target]
			victim := p.rng.IntN(len(list))
			msg.Type = types.MsgCancel
			msg.HandleToCancel = list[victim]

			// swap with last for O(1) removal
			list[victim] = list[len(list)-1]
			p.active[target] = list[:len(list)-1]
		} else {
			// synthetic handle, translated to an engine handle worker-side
			p.active[target] = append(p.active[target], uint32(i+1))
		}

		generated++
		p.push(target, &msg)
		pushed++
	}

	stats.Add(&p.counters.Generated, generated)
	stats.Add(&p.counters.Pushed, pushed)

	control.SignalDone()
}

// push spins a message into the target ring. Pause hints up to the spin
// budget, then one scheduler yield and the budget rearms.
func (p *Producer) push(target uint32, msg *types.Msg) {
	ring := p.rings[target]
	retries := 0
	for !ring.Push(msg) {
		retries++
		if retries <= constants.PushSpinBudget {
			orderring.CPURelax()
		} else {
			runtime.Gosched()
			retries = 0
		}
	}
}

// clampTick bounds a generated price to [1, MaxTicks-2], keeping one unused
// tick at each edge of the domain.
//
//go:nosplit
//go:inline
func clampTick(v int32) uint32 {
	if v < 1 {
		return 1
	}
	if v > constants.MaxTicks-2 {
		return constants.MaxTicks - 2
	}
	return uint32(v)
}
