package preflight

import (
	"context"

	"github.com/beano38/retro-manager/internal/config"
)

// Result reports the outcome of a single preflight check. A failed Required
// check blocks a run; other failures only reduce what a run can find.
type Result struct {
	Name     string
	Passed   bool
	Required bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
// Directories a run writes to must be read/write; manifest, descriptor and
// master set directories only need to be readable. Media directories are
// checked only when media sync is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	add := func(r Result) bool {
		results = append(results, r)
		return ctx.Err() == nil
	}

	writable := []struct{ name, path string }{
		{"ROM directory", cfg.Paths.RomDir},
		{"Staging directory", cfg.Paths.StagingDir},
		{"Log directory", cfg.Paths.LogDir},
		{"Review directory", cfg.Paths.ReviewDir},
	}
	for _, dir := range writable {
		r := CheckDirectoryAccess(dir.name, dir.path)
		r.Required = true
		if !add(r) {
			return results
		}
	}

	readable := []struct{ name, path string }{
		{"Systems directory", cfg.Paths.SystemsDir},
		{"Manifest directory", cfg.Paths.ManifestDir},
	}
	for _, set := range sourceOrder {
		if root := cfg.SourceRoots()[set]; root != "" {
			readable = append(readable, struct{ name, path string }{set + " source", root})
		}
	}
	for _, dir := range readable {
		if !add(CheckReadableDirectory(dir.name, dir.path)) {
			return results
		}
	}

	if cfg.Media.Enabled {
		if !add(CheckReadableDirectory("Media source", cfg.Media.SourceDir)) {
			return results
		}
		add(CheckDirectoryAccess("Media target", cfg.Media.TargetDir))
	}

	return results
}

// sourceOrder lists master sets in the order they are searched.
var sourceOrder = []string{"NoIntro", "GoodSet", "NoGoodSet", "TOSEC", "SoftwareLists", "Redump"}

// RequiredFailures returns the failed checks that block a run.
func RequiredFailures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Required && !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
