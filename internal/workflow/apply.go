package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beano38/retro-manager/internal/fuzzy"
	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/reconcile"
	"github.com/beano38/retro-manager/internal/review"
	"github.com/beano38/retro-manager/internal/system"
)

// ErrNoReview is returned when a system has no review file.
var ErrNoReview = errors.New("no review file")

// ApplyReview materializes the items a curator accepted in the system's
// review file. Applied titles, including ones already present at the
// destination, are dropped from the file; failed ones stay for the next try.
func (r *Runner) ApplyReview(ctx context.Context, name string, opts RunOptions) (*SystemReport, error) {
	start := time.Now()
	report := &SystemReport{System: name, DryRun: opts.DryRun}
	run := r.startRun(ctx, name, opts.DryRun)
	report.RunID = run.ID
	logger := logging.WithRun(r.logger, name, run.ID)

	err := r.applyReview(ctx, name, opts, report, run, logger)
	report.fail(err)
	report.Duration = time.Since(start)
	r.finishRun(ctx, run, report, logger)
	if err != nil {
		return report, err
	}
	logger.Info("review applied",
		logging.Int("accepted", report.Fuzzy),
		logging.Int("materialized", report.Materialized),
		logging.Int("existing", report.Existing),
		logging.Int("failed", report.Failed),
		logging.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

func (r *Runner) applyReview(ctx context.Context, name string, opts RunOptions, report *SystemReport, run *history.Run, logger *slog.Logger) error {
	desc, err := system.Load(r.cfg.Paths.SystemsDir, name)
	if err != nil {
		return err
	}
	path := r.cfg.ReviewPath(name)
	doc, err := review.Load(path)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w for %s at %s", ErrNoReview, name, path)
	}
	report.ReviewFile = path
	report.Review = len(doc.Items)

	targetDir := r.cfg.SystemRomDir(name)
	layout := r.layout(desc, targetDir)
	var matches []reconcile.MatchResult
	for _, item := range doc.Accepted() {
		queued, err := item.ReviewItem()
		if err != nil {
			logging.WarnWithContext(logger, "skipping malformed review item", "review_item_invalid",
				logging.String(logging.FieldWanted, item.Wanted),
				logging.Error(err),
				logging.String(logging.FieldImpact, "title is not materialized"),
				logging.String(logging.FieldErrorHint, "restore the fingerprint field or rerun the system"),
			)
			continue
		}
		matches = append(matches, fuzzy.Promote(queued, layout))
	}
	report.Fuzzy = len(matches)
	if len(matches) == 0 {
		return nil
	}

	if !opts.DryRun {
		unlock, err := lockTarget(targetDir)
		if err != nil {
			return err
		}
		defer unlock()
	}

	if err := r.materializeAll(ctx, r.materializer(layout, opts), matches, targetDir, opts.DryRun, report, run, logger); err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}

	applied := map[string]struct{}{}
	for _, o := range report.Outcomes {
		if o.Status == history.OutcomeMaterialized || o.Status == history.OutcomeExists {
			applied[o.Wanted] = struct{}{}
		}
	}
	remaining := doc.Without(applied)
	if err := review.Write(path, remaining); err != nil {
		return fmt.Errorf("write review file: %w", err)
	}
	report.Review = len(remaining.Items)
	return nil
}
