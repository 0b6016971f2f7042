// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: results.go — Run-summary persistence (sqlite)
//
// Purpose:
//   - Appends one row per benchmark run to a local sqlite database so runs
//     can be compared across configurations and machines.
//
// Notes:
//   - Stores run summaries only. Book state is never persisted; the books
//     are in-memory artifacts of a single run.
//   - Errors here never abort a finished run; callers log and move on.
// ─────────────────────────────────────────────────────────────────────────────

package results

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"matchbench/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	ts             DATETIME DEFAULT CURRENT_TIMESTAMP,
	label          TEXT,
	num_orders     INTEGER,
	span_ticks     INTEGER,
	max_qty        INTEGER,
	cancel_every   INTEGER,
	rng_seed       INTEGER,
	workers        INTEGER,
	pin_cores      INTEGER,
	generated      INTEGER,
	pushed         INTEGER,
	popped         INTEGER,
	filled         INTEGER,
	resting        INTEGER,
	cancelled      INTEGER,
	rejected       INTEGER,
	trades         INTEGER,
	volume         INTEGER,
	seconds        REAL,
	orders_per_sec REAL
)`

// Open opens (creating if needed) the results database at path and ensures
// the runs table exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Insert appends one run summary row.
func Insert(db *sql.DB, s *report.Summary) error {
	pin := 0
	if s.Config.PinCores {
		pin = 1
	}
	_, err := db.Exec(`
		INSERT INTO runs (
			label, num_orders, span_ticks, max_qty, cancel_every, rng_seed,
			workers, pin_cores,
			generated, pushed, popped, filled, resting, cancelled, rejected,
			trades, volume, seconds, orders_per_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Config.Label, s.Config.NumOrders, s.Config.SpanTicks, s.Config.MaxQty,
		s.Config.CancelEvery, s.Config.Seed, s.Config.Workers, pin,
		s.Counters.Generated, s.Counters.Pushed, s.Counters.Popped,
		s.Counters.Filled, s.Counters.Resting, s.Counters.Cancelled,
		s.Counters.Rejected, s.Counters.Trades, s.Counters.Volume,
		s.Counters.Seconds, s.Rate,
	)
	return err
}
