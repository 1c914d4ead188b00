package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/preflight"
	"github.com/beano38/retro-manager/internal/staging"
	"github.com/beano38/retro-manager/internal/system"
)

// ErrNoSystems is returned when a batch has nothing to reconcile.
var ErrNoSystems = errors.New("no systems to reconcile")

// RunBatch reconciles each system in turn. An empty list means every system
// with a descriptor. A failing system is reported and the batch moves on;
// only failed preflight checks or cancellation stop it.
func (r *Runner) RunBatch(ctx context.Context, systems []string, opts RunOptions) ([]*SystemReport, error) {
	if len(systems) == 0 {
		listed, err := system.List(r.cfg.Paths.SystemsDir)
		if err != nil {
			return nil, err
		}
		systems = listed
	}
	if len(systems) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSystems, r.cfg.Paths.SystemsDir)
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if err := r.preflight(ctx); err != nil {
		return nil, err
	}
	r.cleanStaging(ctx)

	reports := make([]*SystemReport, 0, len(systems))
	for _, name := range systems {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := r.RunSystem(ctx, name, opts)
		reports = append(reports, report)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return reports, err
		}
	}
	return reports, nil
}

// FailedSystems returns the names of systems whose run stopped early.
func FailedSystems(reports []*SystemReport) []string {
	var failed []string
	for _, report := range reports {
		if report != nil && report.Err() != nil {
			failed = append(failed, report.System)
		}
	}
	return failed
}

func (r *Runner) preflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, r.cfg)
	for _, res := range results {
		if res.Passed || res.Required {
			continue
		}
		logging.WarnWithContext(r.logger, "preflight check failed", "preflight_warning",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail),
			logging.String(logging.FieldImpact, "titles only reachable through this directory will not be found"),
			logging.String(logging.FieldErrorHint, "fix the path in config or run romset doctor"),
		)
	}
	if failed := preflight.RequiredFailures(results); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, res := range failed {
			parts = append(parts, res.Name+": "+res.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}
	return ctx.Err()
}

func (r *Runner) cleanStaging(ctx context.Context) {
	hours := r.cfg.Reconcile.StagingMaxAgeHours
	if hours <= 0 {
		return
	}
	result := staging.CleanStale(ctx, r.cfg.Paths.StagingDir, time.Duration(hours)*time.Hour, r.logger)
	if len(result.Removed) > 0 {
		r.logger.Info("staging cleaned", logging.Int("removed", len(result.Removed)))
	}
}
