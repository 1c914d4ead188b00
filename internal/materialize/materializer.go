// Package materialize produces a matched ROM in the target collection under
// its canonical name.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/fileutil"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/reconcile"
	"github.com/beano38/retro-manager/internal/staging"
)

// BackupDirName is the folder inside a target directory that receives
// replaced files.
const BackupDirName = "_Backup"

// moveIntoPlace is replaced in tests.
var moveIntoPlace = fileutil.MoveFile

// ErrDestinationExists matches DestinationExistsError.
var ErrDestinationExists = errors.New("destination exists")

// DestinationExistsError reports a target file that would be replaced while
// overwrite is off.
type DestinationExistsError struct {
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDestinationExists, e.Path)
}

func (e *DestinationExistsError) Is(target error) bool { return target == ErrDestinationExists }

// Archiver opens sources and packs staged files.
type Archiver interface {
	archive.Opener
	Compress(ctx context.Context, src string, format archive.Format) (string, error)
}

// Options configures a materializer for one system.
type Options struct {
	StagingRoot string
	Layout      reconcile.Layout
	Overwrite   bool
	Backup      bool
	Password    string
}

// Materializer is the only writer to a target collection.
type Materializer struct {
	archiver Archiver
	opts     Options
	logger   *slog.Logger
}

// New constructs a materializer.
func New(archiver Archiver, opts Options, logger *slog.Logger) *Materializer {
	return &Materializer{
		archiver: archiver,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "materialize"),
	}
}

// Materialize stages the matched source, renames it to the canonical name,
// packs it when required and moves it to targetDir. It returns the final
// path. The staging directory is removed whatever the outcome.
func (m *Materializer) Materialize(ctx context.Context, match reconcile.MatchResult, targetDir string) (string, error) {
	final := filepath.Join(targetDir, filepath.Base(match.DestinationPath))
	_, statErr := os.Lstat(final)
	exists := statErr == nil
	if exists && !m.opts.Overwrite {
		return "", &DestinationExistsError{Path: final}
	}

	workDir, err := staging.NewWorkDir(m.opts.StagingRoot)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			m.logger.Warn("staging directory not removed",
				logging.String("path", workDir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed until the next run"),
			)
		}
	}()

	staged, err := m.stage(ctx, match, workDir)
	if err != nil {
		return "", err
	}
	staged, err = m.rename(match, staged)
	if err != nil {
		return "", err
	}
	if m.opts.Layout.ShouldCompress(staged) {
		packed, err := m.archiver.Compress(ctx, staged, m.opts.Layout.ArchiveFormat)
		if err != nil {
			return "", fmt.Errorf("compress %s: %w", filepath.Base(staged), err)
		}
		if err := os.Remove(staged); err != nil {
			return "", fmt.Errorf("remove intermediate: %w", err)
		}
		staged = packed
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}
	var backedUp string
	if exists && m.opts.Backup {
		if backedUp, err = m.backup(final); err != nil {
			return "", err
		}
	}
	if err := moveIntoPlace(staged, final); err != nil {
		if backedUp != "" {
			m.restore(backedUp, final)
		}
		return "", fmt.Errorf("move into collection: %w", err)
	}

	m.logger.Info("rom materialized",
		logging.String(logging.FieldWanted, match.WantedName),
		logging.String(logging.FieldSource, match.SourceContainer),
		logging.String(logging.FieldMember, match.SourceMember),
		logging.String(logging.FieldFingerprint, match.Fingerprint.String()),
		logging.String("destination", final),
		logging.String("kind", string(match.Kind)),
		logging.Bool("replaced", exists),
	)
	return final, nil
}

func (m *Materializer) stage(ctx context.Context, match reconcile.MatchResult, workDir string) (string, error) {
	if !match.InArchive() {
		target := filepath.Join(workDir, match.SourceMember)
		if _, err := fileutil.CopyFileVerified(match.SourceContainer, target); err != nil {
			return "", fmt.Errorf("copy %s: %w", match.SourceContainer, err)
		}
		return target, nil
	}

	h, err := m.archiver.Open(ctx, match.SourceContainer)
	if err != nil {
		return "", err
	}
	defer h.Close()
	return h.Extract(ctx, match.SourceMember, workDir, m.opts.Password)
}

func (m *Materializer) rename(match reconcile.MatchResult, staged string) (string, error) {
	renamed := filepath.Join(filepath.Dir(staged), m.opts.Layout.RenameTarget(match.WantedName, filepath.Base(staged)))
	if renamed == staged {
		return staged, nil
	}
	if err := os.Rename(staged, renamed); err != nil {
		return "", fmt.Errorf("rename staged file: %w", err)
	}
	m.logger.Debug("staged file renamed",
		logging.String(logging.FieldWanted, match.WantedName),
		logging.String("from", filepath.Base(staged)),
		logging.String("to", filepath.Base(renamed)),
	)
	return renamed, nil
}

// backup moves the current destination into the backup folder, replacing
// any earlier backup of the same name, and returns the backup path.
func (m *Materializer) backup(final string) (string, error) {
	dir := filepath.Join(filepath.Dir(final), BackupDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(final))
	if err := fileutil.MoveFile(final, target); err != nil {
		return "", fmt.Errorf("back up %s: %w", filepath.Base(final), err)
	}
	m.logger.Info("previous file backed up",
		logging.String("path", final),
		logging.String("backup", target),
	)
	return target, nil
}

// restore puts a backed-up file back after the replacement failed to land.
func (m *Materializer) restore(backup, final string) {
	if err := fileutil.MoveFile(backup, final); err != nil {
		logging.WarnWithContext(m.logger, "previous file not restored", "backup_restore_failed",
			logging.String("path", final),
			logging.String("backup", backup),
			logging.Error(err),
			logging.String(logging.FieldImpact, "title is missing from the collection until restored"),
			logging.String(logging.FieldErrorHint, "move the file out of "+BackupDirName+" by hand"),
		)
		return
	}
	m.logger.Info("previous file restored from backup", logging.String("path", final))
}
