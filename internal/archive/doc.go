// Package archive classifies candidate ROM paths and reads their content
// fingerprints.
//
// Zip containers are parsed in-process with klauspost/compress. 7z
// containers go through the configured 7-Zip executable, or through
// bodgit/sevenzip when none is configured. Rar containers need the unrar
// executable. Any other regular file is a plain ROM image whose CRC-32 is
// computed by streaming it. Container CRCs always come from archive metadata
// and are never recomputed.
//
// Failures are reported through typed errors (UnsupportedFormatError,
// CorruptArchiveError, MemberNotFoundError, AuthenticationError) that match
// the package sentinels with errors.Is.
package archive
