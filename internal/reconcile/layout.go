package reconcile

import (
	"path/filepath"
	"strings"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/textutil"
)

// Layout describes how materialized files are named in a system's target
// directory.
type Layout struct {
	TargetDir     string
	CanonicalExt  string
	ArchiveFormat archive.Format
	Compress      bool
}

// FileName is the final base name for canonical provided by member. A member
// that is itself an archive keeps its extension; otherwise the archive
// format is used when compressing, else the canonical extension.
func (l Layout) FileName(canonical, member string) string {
	base := textutil.SanitizeFileName(canonical)
	ext := filepath.Ext(member)
	switch {
	case archive.IsArchiveExt(ext):
		return base + ext
	case l.Compress && l.ArchiveFormat != "":
		return base + "." + string(l.ArchiveFormat)
	default:
		return base + l.dotExt()
	}
}

// RenameTarget is the staged file name before any compression.
func (l Layout) RenameTarget(canonical, current string) string {
	base := textutil.SanitizeFileName(canonical)
	if ext := filepath.Ext(current); archive.IsArchiveExt(ext) {
		return base + ext
	}
	return base + l.dotExt()
}

// Destination joins FileName onto the target directory.
func (l Layout) Destination(canonical, member string) string {
	return filepath.Join(l.TargetDir, l.FileName(canonical, member))
}

// ShouldCompress reports whether a staged file still needs packing.
func (l Layout) ShouldCompress(staged string) bool {
	return l.Compress && l.ArchiveFormat != "" && !archive.IsArchiveExt(filepath.Ext(staged))
}

func (l Layout) dotExt() string {
	ext := strings.TrimPrefix(strings.TrimSpace(l.CanonicalExt), ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}
