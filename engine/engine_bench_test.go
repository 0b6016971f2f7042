// ============================================================================
// MATCHING ENGINE PERFORMANCE BENCHMARK SUITE
// ============================================================================
//
// Latency benchmarks for the hot book operations.
//
// Benchmark categories:
//   - Resting inserts: enqueue without crossing, best case and spread case
//   - Crossing fills: taker consumption of pre-seeded liquidity
//   - Cancels: unlink plus level maintenance
//   - Mixed churn: the dispatch profile a worker actually sees

package engine

import (
	"testing"

	"matchbench/types"
)

// benchMsg builds an order message without allocation inside the loop.
func benchMsg(side uint8, tick, qty uint32) types.Msg {
	return types.Msg{PriceTick: tick, Qty: qty, Side: side, Type: types.MsgAdd}
}

// benchPool bounds the node arena so iteration counts never drive the
// allocation; the book is reset whenever the pool runs dry.
const benchPool = 1 << 20

// BenchmarkAddRestingSameTick measures the pure enqueue path with a hot
// level: every order rests behind the previous one at the same tick.
func BenchmarkAddRestingSameTick(b *testing.B) {
	e := New(testTicks, benchPool)
	m := benchMsg(types.SideBuy, testMid, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if e.AddLimit(&m) == NIL {
			e.Reset()
		}
	}
}

// BenchmarkAddRestingSpread measures enqueue cost when orders land across a
// band of ticks, touching fresh levels and bitset words.
func BenchmarkAddRestingSpread(b *testing.B) {
	e := New(testTicks, benchPool)
	const band = 512

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := benchMsg(types.SideBuy, testMid-band/2+uint32(i)%band, 1)
		if e.AddLimit(&m) == NIL {
			e.Reset()
		}
	}
}

// BenchmarkAddFullFill measures the crossing path: each taker consumes
// exactly one pre-seeded resting order, so the loop never runs dry and the
// book never grows.
func BenchmarkAddFullFill(b *testing.B) {
	e := New(testTicks, 1024)
	rest := benchMsg(types.SideSell, testMid, 1)
	take := benchMsg(types.SideBuy, testMid, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.AddLimit(&rest)
		e.AddLimit(&take)
	}
}

// BenchmarkCancel measures the cancel path on a single-order level: each
// iteration rests one order and cancels it, so the pool stays at steady
// occupancy.
func BenchmarkCancel(b *testing.B) {
	e := New(testTicks, 1024)
	seed := benchMsg(types.SideBuy, testMid, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := e.AddLimit(&seed)
		e.Cancel(h)
	}
}

// BenchmarkChurnMix runs the approximate dispatch profile of a real run:
// mostly resting adds around the mid with periodic crossings and cancels.
func BenchmarkChurnMix(b *testing.B) {
	e := New(testTicks, 65536)
	live := make([]uint32, 0, 65536)
	state := uint64(0x9E3779B97F4A7C15)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17

		side := uint8(state & 1)
		tick := testMid - 25 + uint32(state>>8)%50
		qty := 1 + uint32(state>>32)%8

		if state%100 == 0 && len(live) > 0 {
			victim := int(state>>16) % len(live)
			e.Cancel(live[victim])
			live[victim] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}

		m := benchMsg(side, tick, qty)
		if h := e.AddLimit(&m); h != NIL && h != DoneFill {
			if len(live) < cap(live) {
				live = append(live, h)
			} else {
				e.Cancel(h)
			}
		}
	}
}

// BenchmarkBestBid measures the cached best-price read.
func BenchmarkBestBid(b *testing.B) {
	e := newTestEngine()
	m := benchMsg(types.SideBuy, testMid, 1)
	e.AddLimit(&m)

	var result uint32
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result = e.BestBid()
	}
	_ = result
}
