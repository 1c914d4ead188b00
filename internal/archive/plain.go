package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/beano38/retro-manager/internal/fileutil"
	"github.com/beano38/retro-manager/internal/fingerprint"
)

type plainBackend struct {
	path string
	size uint64
}

func (b *plainBackend) entries(context.Context) ([]Entry, error) {
	fp, err := fingerprint.File(b.path)
	if err != nil {
		return nil, err
	}
	return []Entry{{Name: filepath.Base(b.path), Fingerprint: fp, Size: b.size}}, nil
}

func (b *plainBackend) extract(_ context.Context, entry Entry, destDir, _ string) (string, error) {
	target := extractionTarget(destDir, entry)
	if _, err := fileutil.CopyFileVerified(b.path, target); err != nil {
		return "", fmt.Errorf("copy %s: %w", b.path, err)
	}
	return target, nil
}

func (b *plainBackend) close() error { return nil }
