package candidates

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beano38/retro-manager/internal/logging"
)

// ExpandDirs turns master set roots into the flat directory list Build
// expects: each root followed by every directory nested under it, in
// lexical walk order. Missing roots are logged and dropped, and a directory
// reachable from two roots is listed once.
func ExpandDirs(logger *slog.Logger, roots ...string) []string {
	logger = logging.NewComponentLogger(logger, "candidates")
	seen := make(map[string]struct{})
	var dirs []string

	for _, root := range roots {
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			logging.WarnWithContext(logger, "source root unavailable", "source_root_missing",
				logging.String("root", root),
				logging.String(logging.FieldImpact, "no candidates are read from this master set"),
				logging.String(logging.FieldErrorHint, "check the [sources] paths and the system descriptor romSets"),
			)
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Debug("walk error", logging.String("dir", path), logging.Error(err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			clean := filepath.Clean(path)
			if _, dup := seen[clean]; dup {
				return nil
			}
			seen[clean] = struct{}{}
			dirs = append(dirs, clean)
			return nil
		})
	}
	return dirs
}
