package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/logging"
)

// startRun opens a history row for the run. Without a store, or when the
// insert fails, the run still gets an id so logs correlate.
func (r *Runner) startRun(ctx context.Context, system string, dryRun bool) *history.Run {
	if r.store != nil {
		run, err := r.store.StartRun(ctx, system, dryRun)
		if err == nil {
			return run
		}
		logging.WarnWithContext(r.logger, "run history unavailable", "history_start_failed",
			logging.String(logging.FieldSystem, system),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded in history"),
			logging.String(logging.FieldErrorHint, "run romset doctor to check the history database"),
		)
	}
	return &history.Run{ID: uuid.NewString(), System: system, DryRun: dryRun}
}

func (r *Runner) recorded(run *history.Run) bool {
	return r.store != nil && run != nil && !run.StartedAt.IsZero()
}

func (r *Runner) recordOutcome(ctx context.Context, run *history.Run, o Outcome, logger *slog.Logger) {
	if !r.recorded(run) {
		return
	}
	err := r.store.RecordOutcome(ctx, history.Outcome{
		RunID:        run.ID,
		Wanted:       o.Wanted,
		Fingerprint:  o.Fingerprint,
		SourcePath:   o.Source,
		SourceMember: o.Member,
		Destination:  o.Destination,
		Kind:         o.Kind,
		Confidence:   o.Confidence,
		Status:       o.Status,
		ErrorMessage: o.Error,
	})
	if err != nil {
		logger.Debug("record outcome failed", logging.String(logging.FieldWanted, o.Wanted), logging.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, run *history.Run, report *SystemReport, logger *slog.Logger) {
	if !r.recorded(run) {
		return
	}
	run.Wanted = report.Wanted
	run.Held = report.Held
	run.Exact = report.Exact
	run.Fuzzy = report.Fuzzy
	run.Review = report.Review
	run.Materialized = report.Materialized
	run.Failed = report.Failed
	run.ErrorMessage = report.Error
	// Cancellation must not lose the final counters.
	if err := r.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logger, "finish run failed", "history_finish_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history shows this run as unfinished"),
			logging.String(logging.FieldErrorHint, "run romset doctor to check the history database"),
		)
	}
}
