package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/candidates"
	"github.com/beano38/retro-manager/internal/fuzzy"
	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/holdings"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/manifest"
	"github.com/beano38/retro-manager/internal/materialize"
	"github.com/beano38/retro-manager/internal/mediasync"
	"github.com/beano38/retro-manager/internal/reconcile"
	"github.com/beano38/retro-manager/internal/review"
	"github.com/beano38/retro-manager/internal/system"
)

// RunSystem reconciles one system: audit the target directory, build the
// candidate inventory, match by fingerprint then by name, materialize what
// was matched and queue the uncertain pairings for review. The report is
// always returned; the error is the one that stopped the system early.
func (r *Runner) RunSystem(ctx context.Context, name string, opts RunOptions) (*SystemReport, error) {
	start := time.Now()
	report := &SystemReport{System: name, DryRun: opts.DryRun}
	run := r.startRun(ctx, name, opts.DryRun)
	report.RunID = run.ID
	logger := logging.WithRun(r.logger, name, run.ID)

	err := r.runSystem(ctx, name, opts, report, run, logger)
	report.fail(err)
	report.Duration = time.Since(start)
	r.finishRun(ctx, run, report, logger)

	if err != nil {
		logging.ErrorWithContext(logger, "system reconciliation failed", "system_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, errorHint(err)),
		)
		return report, err
	}
	logger.Info("system reconciled",
		logging.Int("wanted", report.Wanted),
		logging.Int("held", report.Held),
		logging.Int("exact", report.Exact),
		logging.Int("fuzzy", report.Fuzzy),
		logging.Int("review", report.Review),
		logging.Int("unmatched", report.Unmatched),
		logging.Int("materialized", report.Materialized),
		logging.Int("failed", report.Failed),
		logging.Bool("dry_run", opts.DryRun),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func (r *Runner) runSystem(ctx context.Context, name string, opts RunOptions, report *SystemReport, run *history.Run, logger *slog.Logger) error {
	desc, err := system.Load(r.cfg.Paths.SystemsDir, name)
	if err != nil {
		return err
	}
	wanted, err := manifest.Load(r.cfg.ManifestPath(name), logger)
	if err != nil {
		return err
	}

	targetDir := r.cfg.SystemRomDir(name)
	if !opts.DryRun {
		unlock, err := lockTarget(targetDir)
		if err != nil {
			return err
		}
		defer unlock()
	}

	entries, held, err := holdings.Audit(wanted.Entries, targetDir)
	if err != nil {
		return err
	}
	report.Wanted = len(entries)
	report.Held = held

	build := func() error {
		return r.buildSet(ctx, desc, entries, targetDir, opts, report, run, logger)
	}
	if !r.cfg.Media.Enabled || opts.DryRun {
		return build()
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	var media mediasync.Result
	sync := func() error {
		var err error
		media, err = mediasync.Sync(ctx, name, names, mediasync.Options{
			SourceDir:  r.cfg.Media.SourceDir,
			TargetDir:  r.cfg.Media.TargetDir,
			Extensions: r.cfg.Media.Extensions,
		}, logger)
		return err
	}
	errs := runTasks(build, sync)
	report.Media = &MediaReport{
		Copied:  media.Copied,
		Present: media.Present,
		Failed:  media.Failed,
		Missing: len(media.Missing),
	}
	return errors.Join(errs...)
}

// buildSet is the ROM half of a system run.
func (r *Runner) buildSet(ctx context.Context, desc *system.Descriptor, entries []manifest.Entry, targetDir string, opts RunOptions, report *SystemReport, run *history.Run, logger *slog.Logger) error {
	layout := r.layout(desc, targetDir)

	dirs := candidates.ExpandDirs(logger, desc.SourceRoots(r.cfg.SourceRoots())...)
	if len(dirs) == 0 {
		logging.WarnWithContext(logger, "no source directories for system", "no_sources",
			logging.String(logging.FieldImpact, "only titles already in the collection are reported"),
			logging.String(logging.FieldErrorHint, "set romSets in the system descriptor and the [sources] roots in config"),
		)
	}
	inv, err := candidates.Build(ctx, r.archiver, dirs, logger)
	if err != nil {
		return err
	}
	report.Candidates = inv.Len()

	missing := reconcile.Missing(entries)
	report.Missing = len(missing)
	matched, unmatched := reconcile.MatchByFingerprint(missing, inv, layout)
	report.Exact = len(matched)

	fuzzyRan := r.cfg.Reconcile.FuzzyEnabled && !opts.NoFuzzy
	var queue []fuzzy.ReviewItem
	if fuzzyRan && len(unmatched) > 0 {
		auto, items, err := fuzzy.Resolve(unmatched, inv, r.cfg.Reconcile.FuzzyThreshold, layout)
		if err != nil {
			return err
		}
		report.Fuzzy = len(auto)
		matched = append(matched, auto...)
		queue = items
	}
	report.Review = len(queue)
	report.Unmatched = countUnresolved(unmatched, matched, queue)

	if err := r.materializeAll(ctx, r.materializer(layout, opts), matched, targetDir, opts.DryRun, report, run, logger); err != nil {
		return err
	}

	if fuzzyRan && !opts.DryRun {
		if err := r.writeReview(desc.Name, queue, report, logger); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) layout(desc *system.Descriptor, targetDir string) reconcile.Layout {
	return reconcile.Layout{
		TargetDir:     targetDir,
		CanonicalExt:  desc.CanonicalExtension(),
		ArchiveFormat: archive.Format(r.cfg.Archive.Format),
		Compress:      r.cfg.Archive.Compress,
	}
}

func (r *Runner) materializer(layout reconcile.Layout, opts RunOptions) *materialize.Materializer {
	return materialize.New(r.archiver, materialize.Options{
		StagingRoot: r.cfg.Paths.StagingDir,
		Layout:      layout,
		Overwrite:   opts.Overwrite || r.cfg.Reconcile.Overwrite,
		Backup:      r.cfg.Reconcile.BackupOnOverwrite,
		Password:    r.cfg.Archive.Password,
	}, r.logger)
}

// materializeAll writes every match in order. Per-match failures are logged
// and counted; only cancellation stops the loop.
func (r *Runner) materializeAll(ctx context.Context, mat *materialize.Materializer, matches []reconcile.MatchResult, targetDir string, dryRun bool, report *SystemReport, run *history.Run, logger *slog.Logger) error {
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := Outcome{
			Wanted:      match.WantedName,
			Kind:        string(match.Kind),
			Confidence:  match.Confidence,
			Fingerprint: match.Fingerprint.String(),
			Source:      match.SourceContainer,
			Member:      match.SourceMember,
			Destination: match.DestinationPath,
		}

		if dryRun {
			outcome.Status = history.OutcomeDryRun
			logger.Info("would materialize",
				logging.String(logging.FieldWanted, match.WantedName),
				logging.String(logging.FieldSource, match.SourceContainer),
				logging.String(logging.FieldMember, match.SourceMember),
				logging.String("destination", match.DestinationPath),
			)
		} else {
			final, err := mat.Materialize(ctx, match, targetDir)
			switch {
			case err == nil:
				outcome.Status = history.OutcomeMaterialized
				outcome.Destination = final
				report.Materialized++
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, materialize.ErrDestinationExists):
				outcome.Status = history.OutcomeExists
				outcome.Error = err.Error()
				report.Existing++
				logger.Info("destination already present",
					logging.String(logging.FieldWanted, match.WantedName),
					logging.String("destination", match.DestinationPath),
				)
			default:
				outcome.Status = history.OutcomeFailed
				outcome.Error = err.Error()
				report.Failed++
				logging.WarnWithContext(logger, "materialization failed", "materialize_failed",
					logging.String(logging.FieldWanted, match.WantedName),
					logging.String(logging.FieldSource, match.SourceContainer),
					logging.String(logging.FieldMember, match.SourceMember),
					logging.String(logging.FieldFingerprint, match.Fingerprint.String()),
					logging.Error(err),
					logging.String(logging.FieldImpact, "title stays missing from the collection"),
					logging.String(logging.FieldErrorHint, errorHint(err)),
				)
			}
		}
		report.Outcomes = append(report.Outcomes, outcome)
		r.recordOutcome(ctx, run, outcome, logger)
	}
	return nil
}

func (r *Runner) writeReview(system string, queue []fuzzy.ReviewItem, report *SystemReport, logger *slog.Logger) error {
	path := r.cfg.ReviewPath(system)
	previous, err := review.Load(path)
	if err != nil {
		logging.WarnWithContext(logger, "previous review file unreadable", "review_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "earlier accept decisions are not carried over"),
			logging.String(logging.FieldErrorHint, "fix or delete the review file"),
		)
		previous = nil
	}
	if err := review.Write(path, review.New(system, queue, previous, r.now())); err != nil {
		return fmt.Errorf("write review file: %w", err)
	}
	if len(queue) > 0 {
		report.ReviewFile = path
		logger.Info("review queue written",
			logging.String("path", path),
			logging.Int("items", len(queue)),
		)
	}
	return nil
}

// countUnresolved counts entries that got neither a match nor a review item.
func countUnresolved(unmatched []manifest.Entry, matched []reconcile.MatchResult, queue []fuzzy.ReviewItem) int {
	resolved := make(map[string]struct{}, len(matched)+len(queue))
	for _, m := range matched {
		resolved[m.WantedName] = struct{}{}
	}
	for _, q := range queue {
		resolved[q.WantedName] = struct{}{}
	}
	count := 0
	for _, e := range unmatched {
		if _, ok := resolved[e.Name]; !ok {
			count++
		}
	}
	return count
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, manifest.ErrManifestMissing):
		return "place the system's database XML in paths.manifest_dir"
	case errors.Is(err, manifest.ErrManifestInvalid):
		return "check the database XML is well formed"
	case errors.Is(err, system.ErrNotFound):
		return "add a descriptor for the system in paths.systems_dir"
	case errors.Is(err, ErrTargetLocked):
		return "wait for the other romset run to finish"
	case errors.Is(err, archive.ErrAuthentication):
		return "set archive.password or ROMSET_ARCHIVE_PASSWORD"
	case errors.Is(err, archive.ErrMemberNotFound), errors.Is(err, archive.ErrCorruptArchive):
		return "the source archive changed or is damaged; rerun to rebuild the inventory"
	default:
		return "check logs for details"
	}
}
