// Package candidates builds the per-run inventory of ROM images available in
// the source collections.
//
// Build opens every file directly inside each source directory through the
// archive inspector and keeps the first (container, member) seen for each
// CRC-32 fingerprint. Directory order is the caller's; within a directory,
// files are visited in name order. The inventory is never persisted.
package candidates
