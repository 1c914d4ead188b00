// Package main hosts the romset CLI.
//
// The Cobra command tree loads configuration once, builds the logger and run
// history store, and hands the real work to internal/workflow. Output is a
// table on terminals and indented JSON with --json.
package main
