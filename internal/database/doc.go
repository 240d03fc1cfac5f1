// Package database provides SQLite-based run history for ghsubfinder.
//
// This package implements the HistoryDB, which stores:
//   - One summary row per completed run (target, mode, times, counters)
//   - The domains each run discovered
//
// The history is auxiliary: the deliverable of a run is still the flat
// output file. The history command uses it to list past runs and to show
// which domains appeared or disappeared between two of them.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the history command read while a scan is writing
package database
