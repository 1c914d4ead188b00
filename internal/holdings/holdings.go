// Package holdings marks which wanted titles the target collection already
// has.
package holdings

import (
	"errors"
	"fmt"
	"os"

	"github.com/beano38/retro-manager/internal/manifest"
	"github.com/beano38/retro-manager/internal/textutil"
)

// Audit returns a copy of entries with Have set for every title whose
// sanitized name matches a file in targetDir, ignoring extensions. A missing
// target directory holds nothing. The number of held titles is returned too.
func Audit(entries []manifest.Entry, targetDir string) ([]manifest.Entry, int, error) {
	held, err := heldNames(targetDir)
	if err != nil {
		return nil, 0, err
	}
	out := make([]manifest.Entry, len(entries))
	count := 0
	for idx, e := range entries {
		_, e.Have = held[textutil.SanitizeFileName(e.Name)]
		if e.Have {
			count++
		}
		out[idx] = e
	}
	return out, count, nil
}

func heldNames(targetDir string) (map[string]struct{}, error) {
	dirEntries, err := os.ReadDir(targetDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("read target directory: %w", err)
	}
	names := make(map[string]struct{}, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		names[textutil.StripExtension(de.Name())] = struct{}{}
	}
	return names, nil
}
