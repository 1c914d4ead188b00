// Package mediasync copies front-end artwork and videos for wanted titles
// from a media library into the cabinet's media tree.
package mediasync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beano38/retro-manager/internal/fileutil"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/textutil"
)

// Options selects what to copy for one system.
type Options struct {
	SourceDir  string
	TargetDir  string
	Extensions []string
}

// Result counts what a sync did.
type Result struct {
	Copied  int
	Present int
	Failed  int
	// Missing lists wanted titles with no media file at all.
	Missing []string
}

// Sync walks <SourceDir>/<system> and copies each file whose name, without
// extension, is a wanted title to the same relative location under
// <TargetDir>/<system>. Files already present are left alone.
func Sync(ctx context.Context, system string, wanted []string, opts Options, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logger, "mediasync")
	srcRoot := filepath.Join(opts.SourceDir, system)
	dstRoot := filepath.Join(opts.TargetDir, system)

	want := make(map[string]string, len(wanted))
	for _, name := range wanted {
		want[name] = name
		want[textutil.SanitizeFileName(name)] = name
	}
	allowed := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	var result Result
	found := make(map[string]struct{})
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == srcRoot && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			logger.Warn("media path unreadable",
				logging.String("path", path),
				logging.Error(walkErr),
				logging.String(logging.FieldEventType, "media_walk_failed"),
				logging.String(logging.FieldErrorHint, "check media.source_dir permissions"),
				logging.String(logging.FieldImpact, "media under this path is not synced"),
			)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		title, ok := want[textutil.StripExtension(d.Name())]
		if !ok {
			return nil
		}
		found[title] = struct{}{}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)
		if _, err := os.Stat(dst); err == nil {
			result.Present++
			return nil
		}
		if err := copyMedia(path, dst); err != nil {
			result.Failed++
			logger.Warn("media copy failed",
				logging.String(logging.FieldWanted, title),
				logging.String(logging.FieldSource, path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "media_copy_failed"),
				logging.String(logging.FieldErrorHint, "check media.target_dir permissions and free space"),
				logging.String(logging.FieldImpact, "front-end shows no artwork for this title"),
			)
			return nil
		}
		result.Copied++
		logger.Debug("media copied",
			logging.String(logging.FieldWanted, title),
			logging.String(logging.FieldSource, path),
			logging.String("destination", dst),
		)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("sync media for %s: %w", system, err)
	}

	for _, name := range wanted {
		if _, ok := found[name]; !ok {
			result.Missing = append(result.Missing, name)
		}
	}
	logger.Info("media sync complete",
		logging.String(logging.FieldSystem, system),
		logging.Int("copied", result.Copied),
		logging.Int("present", result.Present),
		logging.Int("failed", result.Failed),
		logging.Int("missing", len(result.Missing)),
	)
	return result, nil
}

func copyMedia(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	_, err := fileutil.CopyFileVerified(src, dst)
	return err
}
