// Package config loads, normalizes, and validates romset configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ROMSET_7Z and ROMSET_ARCHIVE_PASSWORD. The Config type centralizes every
// knob the CLI needs, so the target collection, master set roots, archive
// tools and matching thresholds are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical archive formats, and clear validation errors.
package config
