// Package preflight provides readiness checks for the filesystem paths and
// archive tools romset depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls RunAll before reconciling. If a directory a
//     run writes to is unusable the batch stops before touching anything.
//   - The CLI "romset doctor" command prints every check plus the tool
//     status from CheckSystemDeps.
//
// Media checks are gated by their config toggle; disabled features are skipped.
package preflight
