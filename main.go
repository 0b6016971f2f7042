// ════════════════════════════════════════════════════════════════════════════════════════════════
// Matching Engine Benchmark - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Limit Order Book Matching Benchmark
// Component: Main Entry Point & Run Orchestration
//
// Description:
//   Drives one benchmark run: configuration, fan-out construction, worker
//   launch, inline production, join, and reporting.
//
// Architecture:
//   - Phase 1: Configuration (defaults → JSON file → command-line flags)
//   - Phase 2: Construction (rings, workers with private engines, counters)
//   - Phase 3: Run (workers on pinned threads, producer inline, join)
//   - Phase 4: Report (counter table, depth ladder, optional JSON/sqlite sink)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"matchbench/config"
	"matchbench/constants"
	"matchbench/control"
	"matchbench/debug"
	"matchbench/engine"
	"matchbench/orderring"
	"matchbench/producer"
	"matchbench/report"
	"matchbench/results"
	"matchbench/stats"
	"matchbench/worker"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// parseConfig layers the three configuration sources: compiled defaults,
// then the optional JSON file, then explicitly set command-line flags.
func parseConfig() config.Config {
	cfgPath := flag.String("config", "", "JSON config file")
	orders := flag.Uint64("orders", constants.DefaultNumOrders, "total messages to generate")
	span := flag.Uint("span", constants.DefaultSpanTicks, "price band half-width in ticks")
	maxQty := flag.Uint("qty", constants.DefaultMaxQty, "max order quantity")
	cancelEvery := flag.Uint64("cancel-every", constants.DefaultCancelEvery, "one cancel per N messages, 0 disables")
	seed := flag.Uint64("seed", constants.DefaultSeed, "generator seed")
	label := flag.String("label", "", "run label, derives the seed when set")
	workers := flag.Int("workers", constants.DefaultWorkers, "worker/queue/engine fan-out")
	pin := flag.Bool("pin", false, "pin worker threads to cores")
	dbPath := flag.String("db", "", "sqlite results database, empty disables")
	jsonPath := flag.String("json", "", "JSON summary export path, empty disables")
	depth := flag.Int("depth", 10, "price levels per side in the depth report")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.LoadFile(*cfgPath)
		if err != nil {
			panic("Failed to load config " + *cfgPath + ": " + err.Error())
		}
		cfg = loaded
	}

	// Flags override the file only when the user actually set them
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "orders":
			cfg.NumOrders = *orders
		case "span":
			cfg.SpanTicks = uint32(*span)
		case "qty":
			cfg.MaxQty = uint32(*maxQty)
		case "cancel-every":
			cfg.CancelEvery = *cancelEvery
		case "seed":
			cfg.Seed = *seed
		case "label":
			cfg.Label = *label
		case "workers":
			cfg.Workers = *workers
		case "pin":
			cfg.PinCores = *pin
		case "db":
			cfg.DBPath = *dbPath
		case "json":
			cfg.JSONPath = *jsonPath
		case "depth":
			cfg.TopDepth = *depth
		}
	})

	if cfg.Sanitize() {
		debug.DropMessage("config", "degenerate values clamped")
	}
	return cfg
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func main() {
	cfg := parseConfig()

	// Phase 2: construction. One ring and one worker-private engine per lane.
	perRing := constants.RingCapacityTotal / cfg.Workers
	rings := make([]*orderring.Ring, cfg.Workers)
	for i := range rings {
		rings[i] = orderring.New(perRing)
	}

	var counters stats.Counters
	control.Reset()

	workers := make([]*worker.Worker, cfg.Workers)
	joins := make([]chan struct{}, cfg.Workers)
	for i := range workers {
		workers[i] = worker.New(i, rings[i], &counters, cfg.PinCores)
		joins[i] = make(chan struct{})
	}

	// Ctrl-C aborts the run; workers stop at the next batch boundary.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		control.Abort()
	}()

	// Phase 3: run. Workers on their own threads, producer inline.
	counters.Start()
	for i := range workers {
		go workers[i].Run(joins[i])
	}

	producer.New(rings, cfg, &counters).Run()

	for _, j := range joins {
		<-j
	}
	counters.Stop()

	// Fold worker-private engine totals into the shared counters.
	engines := make([]*engine.Engine, len(workers))
	live := make([]int, len(workers))
	for i, w := range workers {
		engines[i] = w.Engine
		live[i] = w.LiveOrders()
		stats.Add(&counters.Trades, w.Engine.TotalTrades())
		stats.Add(&counters.Volume, w.Engine.TotalVolume())
	}

	if !control.Aborted() {
		verifyAccounting(&counters)
	}

	// Phase 4: report and sinks.
	summary := report.Build(cfg, &counters, engines, live)
	report.Print(&summary)

	if cfg.JSONPath != "" {
		if err := report.WriteJSON(cfg.JSONPath, &summary); err != nil {
			debug.DropError("json export", err)
		}
	}
	if cfg.DBPath != "" {
		db, err := results.Open(cfg.DBPath)
		if err != nil {
			debug.DropError("results db", err)
		} else {
			if err := results.Insert(db, &summary); err != nil {
				debug.DropError("results insert", err)
			}
			db.Close()
		}
	}
}

// verifyAccounting panics when the conservation identities of a completed
// run do not hold. A broken identity means lost or duplicated messages, and
// a benchmark that miscounts is measuring nothing.
func verifyAccounting(c *stats.Counters) {
	s := c.Snapshot()
	if s.Generated != s.Pushed || s.Pushed != s.Popped {
		panic("message conservation violated: generated/pushed/popped diverge")
	}
	if s.Filled+s.Resting+s.Cancelled+s.Rejected != s.Popped {
		panic("dispatch accounting violated: outcome classes do not sum to popped")
	}
}
