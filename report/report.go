// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: report.go — End-of-run summary assembly and printing
//
// Purpose:
//   - Aggregates the shared counters, per-worker engine totals, and residual
//     book depth into one Summary.
//   - Prints the human-readable table and optionally exports the Summary as
//     JSON for machine consumption.
//
// Notes:
//   - Runs once after all workers have joined; nothing here is on the
//     message path, so ordinary fmt formatting is fine.
//   - Depth is merged across all per-worker books into a price-ordered tree
//     so the printed ladder reads like a single venue's book.
// ─────────────────────────────────────────────────────────────────────────────

package report

import (
	"fmt"
	"os"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	"github.com/sugawarayuuta/sonnet"

	"matchbench/config"
	"matchbench/engine"
	"matchbench/stats"
	"matchbench/types"
)

// DepthLevel is one aggregated price level of the residual book.
type DepthLevel struct {
	Tick uint32 `json:"tick"`
	Qty  uint64 `json:"qty"`
}

// WorkerTotals carries one worker engine's end-of-run state.
type WorkerTotals struct {
	ID      int    `json:"id"`
	Trades  uint64 `json:"trades"`
	Volume  uint64 `json:"volume"`
	Live    int    `json:"live_orders"`
	BestBid uint32 `json:"best_bid"`
	BestAsk uint32 `json:"best_ask"`
}

// Summary is the complete result of one run.
type Summary struct {
	Config   config.Config  `json:"config"`
	Counters stats.Snapshot `json:"counters"`
	Rate     float64        `json:"orders_per_sec"`
	Workers  []WorkerTotals `json:"workers"`
	Bids     []DepthLevel   `json:"bids"`
	Asks     []DepthLevel   `json:"asks"`
}

// Build assembles the Summary from the shared counters and the per-worker
// engines. live[i] is worker i's surviving handle count; engines[i] its book.
func Build(cfg config.Config, counters *stats.Counters, engines []*engine.Engine, live []int) Summary {
	snap := counters.Snapshot()

	rate := 0.0
	if snap.Seconds > 0 {
		rate = float64(snap.Popped) / snap.Seconds
	}

	workers := make([]WorkerTotals, len(engines))
	for i, e := range engines {
		workers[i] = WorkerTotals{
			ID:      i,
			Trades:  e.TotalTrades(),
			Volume:  e.TotalVolume(),
			Live:    live[i],
			BestBid: e.BestBid(),
			BestAsk: e.BestAsk(),
		}
	}

	return Summary{
		Config:   cfg,
		Counters: snap,
		Rate:     rate,
		Workers:  workers,
		Bids:     mergeDepth(engines, types.SideBuy, cfg.TopDepth),
		Asks:     mergeDepth(engines, types.SideSell, cfg.TopDepth),
	}
}

// mergeDepth folds one side of every worker book into a price-ordered tree
// and returns the top K levels. Bids iterate highest-first, asks lowest-first.
func mergeDepth(engines []*engine.Engine, side uint8, topK int) []DepthLevel {
	cmp := func(a, b uint32) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	if side == types.SideBuy {
		asc := cmp
		cmp = func(a, b uint32) int { return -asc(a, b) }
	}

	tree := rbt.NewWith[uint32, uint64](cmp)
	for _, e := range engines {
		for tick := uint32(0); tick < e.MaxTicks(); tick++ {
			q := e.DepthAt(side, tick)
			if q == 0 {
				continue
			}
			if prev, ok := tree.Get(tick); ok {
				tree.Put(tick, prev+uint64(q))
			} else {
				tree.Put(tick, uint64(q))
			}
		}
	}

	out := make([]DepthLevel, 0, topK)
	it := tree.Iterator()
	for it.Next() && len(out) < topK {
		out = append(out, DepthLevel{Tick: it.Key(), Qty: it.Value()})
	}
	return out
}

// Print writes the human-readable summary to stdout.
func Print(s *Summary) {
	c := &s.Counters

	fmt.Println("── run summary ─────────────────────────────────────────────")
	fmt.Printf("  generated  %12d\n", c.Generated)
	fmt.Printf("  pushed     %12d\n", c.Pushed)
	fmt.Printf("  popped     %12d\n", c.Popped)
	fmt.Printf("  filled     %12d\n", c.Filled)
	fmt.Printf("  resting    %12d\n", c.Resting)
	fmt.Printf("  cancelled  %12d\n", c.Cancelled)
	fmt.Printf("  rejected   %12d\n", c.Rejected)
	fmt.Printf("  trades     %12d\n", c.Trades)
	fmt.Printf("  volume     %12d\n", c.Volume)
	fmt.Printf("  elapsed    %11.3fs\n", c.Seconds)
	fmt.Printf("  rate       %12.0f orders/sec\n", s.Rate)

	fmt.Println("── per-worker engines ──────────────────────────────────────")
	for _, w := range s.Workers {
		fmt.Printf("  worker %2d  trades %10d  volume %12d  live %8d  bb %s  ba %s\n",
			w.ID, w.Trades, w.Volume, w.Live, fmtTick(w.BestBid), fmtTick(w.BestAsk))
	}

	fmt.Println("── residual depth (aggregated) ─────────────────────────────")
	fmt.Printf("  %-8s %-12s   %-8s %-12s\n", "bid", "qty", "ask", "qty")
	rows := len(s.Bids)
	if len(s.Asks) > rows {
		rows = len(s.Asks)
	}
	for i := 0; i < rows; i++ {
		bid, bq, ask, aq := "", "", "", ""
		if i < len(s.Bids) {
			bid = fmt.Sprintf("%d", s.Bids[i].Tick)
			bq = fmt.Sprintf("%d", s.Bids[i].Qty)
		}
		if i < len(s.Asks) {
			ask = fmt.Sprintf("%d", s.Asks[i].Tick)
			aq = fmt.Sprintf("%d", s.Asks[i].Qty)
		}
		fmt.Printf("  %-8s %-12s   %-8s %-12s\n", bid, bq, ask, aq)
	}
}

// WriteJSON exports the summary as JSON at path.
func WriteJSON(path string, s *Summary) error {
	raw, err := sonnet.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func fmtTick(t uint32) string {
	if t == engine.NoPrice {
		return "-"
	}
	return fmt.Sprintf("%d", t)
}
