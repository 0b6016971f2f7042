// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — Run configuration loading and seed derivation
//
// Purpose:
//   - Carries the runtime knobs of a benchmark run: workload shape, fan-out,
//     pinning, and output sinks.
//   - Loads overrides from a JSON file; command-line flags are layered on top
//     by the harness main.
//
// Notes:
//   - Compile-time sizing (tick domain, pool capacity, ring sizing) lives in
//     package constants, not here.
//   - All loading happens once at startup, never on the message path.
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"os"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"matchbench/constants"
	"matchbench/utils"
)

// Config is the runtime shape of one benchmark run.
type Config struct {
	NumOrders   uint64 `json:"num_orders"`   // total messages to generate
	SpanTicks   uint32 `json:"span_ticks"`   // price band half-width around mid
	MaxQty      uint32 `json:"max_qty"`      // quantities drawn from [1, MaxQty]
	CancelEvery uint64 `json:"cancel_every"` // one cancel per this many messages, 0 disables
	Seed        uint64 `json:"rng_seed"`     // generator seed, ignored when Label is set
	Label       string `json:"label"`        // human-readable run name, derives the seed
	Workers     int    `json:"workers"`      // queue/worker/engine fan-out
	PinCores    bool   `json:"pin_cores"`    // pin worker threads to cores 0..Workers-1

	DBPath   string `json:"db_path"`   // sqlite sink for the run summary, empty disables
	JSONPath string `json:"json_path"` // JSON summary export path, empty disables
	TopDepth int    `json:"top_depth"` // price levels per side in the depth report
}

// Default returns the configuration of an argument-less run.
func Default() Config {
	return Config{
		NumOrders:   constants.DefaultNumOrders,
		SpanTicks:   constants.DefaultSpanTicks,
		MaxQty:      constants.DefaultMaxQty,
		CancelEvery: constants.DefaultCancelEvery,
		Seed:        constants.DefaultSeed,
		Workers:     constants.DefaultWorkers,
		TopDepth:    10,
	}
}

// LoadFile overlays the JSON file at path onto the defaults. Fields absent
// from the file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := sonnet.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EffectiveSeed resolves the generator seed: a non-empty label wins over the
// numeric seed, so runs named the same replay the same stream everywhere.
func (c *Config) EffectiveSeed() uint64 {
	if c.Label != "" {
		return SeedFromLabel(c.Label)
	}
	return c.Seed
}

// SeedFromLabel folds a run label into a 64-bit seed: SHA3-256 of the label,
// first eight digest bytes, avalanched once so near-identical labels land far
// apart in seed space.
func SeedFromLabel(label string) uint64 {
	sum := sha3.Sum256(utils.S2b(label))
	return utils.Mix64(utils.Load64(sum[:8]))
}

// Sanitize clamps degenerate knob values to runnable ones and reports
// whether anything was adjusted.
func (c *Config) Sanitize() bool {
	adjusted := false
	if c.Workers <= 0 {
		c.Workers = 1
		adjusted = true
	}
	if c.MaxQty == 0 {
		c.MaxQty = 1
		adjusted = true
	}
	if c.SpanTicks == 0 || c.SpanTicks >= constants.MaxTicks/2 {
		c.SpanTicks = constants.DefaultSpanTicks
		adjusted = true
	}
	if c.TopDepth <= 0 {
		c.TopDepth = 10
		adjusted = true
	}
	return adjusted
}
