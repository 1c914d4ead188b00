// Package textutil provides text helpers for name similarity and filename
// sanitization.
//
// The primary use cases are:
//   - Scoring how close a candidate ROM file name is to a wanted title
//   - Sanitizing canonical titles for safe filesystem use
//
// Similarity is the indel ratio (longest common subsequence based) over
// NFC-normalised runes, which matches what curators expect from a
// "difference ratio" between two titles.
package textutil
