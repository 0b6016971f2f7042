// ============================================================================
// ORDER RING CONCURRENCY STRESS SUITE
// ============================================================================
//
// Multi-goroutine validation of the ring protocol.
//
// Test categories:
//   - SPSC stress: the harness's actual usage pattern, one producer and one
//     consumer, strict FIFO checked message by message
//   - MPMC stress: several producers and consumers, conservation and
//     per-producer ordering checked after the fact

package orderring

import (
	"sync"
	"sync/atomic"
	"testing"

	"matchbench/types"
)

// TestSPSCStress runs one producer against one consumer and checks strict
// FIFO delivery of a large stream.
func TestSPSCStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in short mode")
	}

	r := New(1024)
	const total = 2_000_000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(0); i < total; {
			m := types.Msg{ClientID: i, Qty: 1, Type: types.MsgAdd}
			if r.Push(&m) {
				i++
			} else {
				CPURelax()
			}
		}
	}()

	var firstErr atomic.Value
	go func() {
		defer wg.Done()
		var m types.Msg
		for i := uint64(0); i < total; {
			if !r.Pop(&m) {
				CPURelax()
				continue
			}
			if m.ClientID != i {
				firstErr.Store(m.ClientID)
				return
			}
			i++
		}
	}()

	wg.Wait()
	if v := firstErr.Load(); v != nil {
		t.Fatalf("FIFO violation: unexpected ClientID %d", v.(uint64))
	}
	if !r.Empty() {
		t.Fatal("ring not empty after balanced stress")
	}
}

// TestMPMCStress runs several producers and consumers concurrently and
// verifies conservation plus per-producer FIFO.
func TestMPMCStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in short mode")
	}

	const (
		producers   = 4
		consumers   = 4
		perProducer = 200_000
	)

	r := New(512)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := uint64(0); i < perProducer; {
				// WorkerID tags the producer, ClientID its stream position
				m := types.Msg{ClientID: i, WorkerID: uint32(p), Qty: 1}
				if r.Push(&m) {
					i++
				} else {
					CPURelax()
				}
			}
		}(p)
	}

	var consumed uint64
	results := make([][]uint64, consumers)
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func(c int) {
			defer cwg.Done()
			seen := make([]uint64, 0, perProducer)
			defer func() { results[c] = seen }()
			var m types.Msg
			for {
				if atomic.LoadUint64(&consumed) >= producers*perProducer {
					return
				}
				if !r.Pop(&m) {
					CPURelax()
					continue
				}
				atomic.AddUint64(&consumed, 1)
				// pack producer id and stream position for later ordering check
				seen = append(seen, uint64(m.WorkerID)<<32|m.ClientID)
			}
		}(c)
	}

	wg.Wait()
	cwg.Wait()

	if consumed != producers*perProducer {
		t.Fatalf("consumed %d, want %d", consumed, producers*perProducer)
	}

	// per-producer positions must be strictly increasing within a consumer
	for c, seen := range results {
		last := make(map[uint32]uint64)
		for _, packed := range seen {
			p := uint32(packed >> 32)
			pos := packed & 0xFFFFFFFF
			if prev, ok := last[p]; ok && pos <= prev {
				t.Fatalf("consumer %d: producer %d position %d after %d", c, p, pos, prev)
			}
			last[p] = pos
		}
	}
}
