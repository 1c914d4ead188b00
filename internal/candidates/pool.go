package candidates

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/fingerprint"
	"github.com/beano38/retro-manager/internal/logging"
)

// Entry is one fingerprinted ROM image available somewhere on disk.
// For plain files MemberName is the file's base name.
type Entry struct {
	Fingerprint   fingerprint.Fingerprint
	ContainerPath string
	MemberName    string
}

// InArchive reports whether the image lives inside a container.
func (e Entry) InArchive() bool {
	return e.MemberName != filepath.Base(e.ContainerPath)
}

// Inventory maps fingerprints to the first entry seen for each.
type Inventory struct {
	byFingerprint map[fingerprint.Fingerprint]Entry
	order         []fingerprint.Fingerprint
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{byFingerprint: make(map[fingerprint.Fingerprint]Entry)}
}

// Add records e unless its fingerprint is already present. It reports
// whether e was kept.
func (inv *Inventory) Add(e Entry) bool {
	if _, exists := inv.byFingerprint[e.Fingerprint]; exists {
		return false
	}
	inv.byFingerprint[e.Fingerprint] = e
	inv.order = append(inv.order, e.Fingerprint)
	return true
}

// Lookup returns the entry for fp.
func (inv *Inventory) Lookup(fp fingerprint.Fingerprint) (Entry, bool) {
	if inv == nil || fp.IsZero() {
		return Entry{}, false
	}
	e, ok := inv.byFingerprint[fp]
	return e, ok
}

// Entries returns all entries in the order they were first seen.
func (inv *Inventory) Entries() []Entry {
	if inv == nil {
		return nil
	}
	out := make([]Entry, 0, len(inv.order))
	for _, fp := range inv.order {
		out = append(out, inv.byFingerprint[fp])
	}
	return out
}

// Len returns the number of distinct fingerprints.
func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.order)
}

// Build fingerprints every regular file directly inside each of dirs, in the
// given directory order and then file-name order. The first occurrence of a
// fingerprint wins. Unreadable directories and candidates are logged and
// skipped; only context cancellation aborts the build.
func Build(ctx context.Context, opener archive.Opener, dirs []string, logger *slog.Logger) (*Inventory, error) {
	logger = logging.NewComponentLogger(logger, "candidates")
	inv := NewInventory()
	var scanned, skipped, dropped int

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logging.WarnWithContext(logger, "source directory unreadable", "source_dir_skipped",
				logging.String("dir", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "candidates in this directory are ignored"),
				logging.String(logging.FieldErrorHint, "check the source path and permissions"),
			)
			continue
		}
		for _, de := range entries {
			if err := ctx.Err(); err != nil {
				return inv, err
			}
			path := filepath.Join(dir, de.Name())
			if !isRegular(de, path) {
				continue
			}
			scanned++

			dups, err := addCandidate(ctx, opener, inv, path, logger)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return inv, err
				}
				skipped++
				logging.WarnWithContext(logger, "candidate skipped", "candidate_skipped",
					logging.String(logging.FieldSource, path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "content of this file cannot be matched"),
					logging.String(logging.FieldErrorHint, "repair or remove the file, or configure the archive tools"),
				)
				continue
			}
			dropped += dups
		}
	}

	logger.Info("candidate inventory built",
		logging.Int("directories", len(dirs)),
		logging.Int("files", scanned),
		logging.Int("fingerprints", inv.Len()),
		logging.Int("duplicates", dropped),
		logging.Int("skipped", skipped),
	)
	return inv, nil
}

// isRegular follows symlinks so linked ROM files count and linked
// directories do not.
func isRegular(de fs.DirEntry, path string) bool {
	if de.Type().IsRegular() {
		return true
	}
	if de.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// addCandidate records every member of path and returns how many were
// dropped as duplicates.
func addCandidate(ctx context.Context, opener archive.Opener, inv *Inventory, path string, logger *slog.Logger) (int, error) {
	h, err := opener.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer h.Close()

	members, err := h.Entries(ctx)
	if err != nil {
		return 0, err
	}
	var dups int
	for _, m := range members {
		e := Entry{Fingerprint: m.Fingerprint, ContainerPath: path, MemberName: m.Name}
		if inv.Add(e) {
			continue
		}
		dups++
		first, _ := inv.Lookup(m.Fingerprint)
		logger.Debug("duplicate fingerprint dropped",
			logging.String(logging.FieldFingerprint, m.Fingerprint.String()),
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldMember, m.Name),
			logging.String("kept_source", first.ContainerPath),
		)
	}
	return dups, nil
}
