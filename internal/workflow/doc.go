// Package workflow drives a reconciliation run end to end.
//
// A Runner takes one system at a time through the same steps: load its
// descriptor and wanted manifest, audit what the target directory already
// holds, fingerprint every candidate in the configured master sets, match
// by fingerprint and then by name similarity, and hand each match to the
// materializer. Name matches that are not certain are written to the
// system's review file instead; ApplyReview later materializes the ones a
// curator accepted.
//
// Non-dry runs hold an advisory lock on the system's target directory, so
// two romset processes never write the same collection. Every run is
// recorded in the history database when a store is supplied. When media sync
// is enabled it runs beside the ROM build on a two-worker pool.
package workflow
