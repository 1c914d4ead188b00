// Package logging assembles structured slog loggers and formatting helpers used
// across romset.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standard field keys (system, run_id, wanted,
// source, fingerprint) so reconciliation logs can be filtered per title. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
