// Package history persists a record of every reconciliation run in SQLite.
//
// Each run row carries the per-system counters (wanted, held, exact and
// fuzzy matches, review items, materialized, failed); each outcome row
// records one match and what the materializer did with it. The database
// lives at <log_dir>/history.db and is opened in WAL mode with a busy
// timeout so the CLI can read history while a run is writing.
package history
