package reconcile_test

import (
	"path/filepath"
	"testing"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/candidates"
	"github.com/beano38/retro-manager/internal/manifest"
	"github.com/beano38/retro-manager/internal/reconcile"
)

func TestLayoutFileName(t *testing.T) {
	tests := []struct {
		name      string
		layout    reconcile.Layout
		canonical string
		member    string
		want      string
	}{
		{"compress to zip", reconcile.Layout{CanonicalExt: "nes", ArchiveFormat: archive.FormatZip, Compress: true}, "Zelda II", "Zelda2.nes", "Zelda II.zip"},
		{"compress to 7z", reconcile.Layout{CanonicalExt: "nes", ArchiveFormat: archive.FormatSevenZip, Compress: true}, "Contra", "contra.unf", "Contra.7z"},
		{"no compression", reconcile.Layout{CanonicalExt: "nes", ArchiveFormat: archive.FormatZip}, "Contra", "contra.unf", "Contra.nes"},
		{"archive member kept", reconcile.Layout{CanonicalExt: "nes", ArchiveFormat: archive.FormatZip, Compress: true}, "Contra", "inner.7z", "Contra.7z"},
		{"archive ext any case", reconcile.Layout{CanonicalExt: "nes"}, "Contra", "INNER.ZIP", "Contra.ZIP"},
		{"sanitized", reconcile.Layout{CanonicalExt: ".nes"}, "Zelda II: The Adventure of Link", "z.nes", "Zelda II - The Adventure of Link.nes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.FileName(tt.canonical, tt.member); got != tt.want {
				t.Fatalf("FileName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLayoutRenameTarget(t *testing.T) {
	layout := reconcile.Layout{CanonicalExt: "nes", ArchiveFormat: archive.FormatZip, Compress: true}
	if got := layout.RenameTarget("Zelda II", "Zelda2.NES"); got != "Zelda II.nes" {
		t.Fatalf("RenameTarget = %q", got)
	}
	if got := layout.RenameTarget("Zelda II", "pack.rar"); got != "Zelda II.rar" {
		t.Fatalf("RenameTarget = %q", got)
	}
	if !layout.ShouldCompress("Zelda II.nes") || layout.ShouldCompress("Zelda II.rar") {
		t.Fatal("unexpected ShouldCompress result")
	}
}

func TestMissing(t *testing.T) {
	entries := []manifest.Entry{{Name: "A", Have: true}, {Name: "B"}, {Name: "C", Have: true}, {Name: "D"}}
	got := reconcile.Missing(entries)
	if len(got) != 2 || got[0].Name != "B" || got[1].Name != "D" {
		t.Fatalf("unexpected missing entries %+v", got)
	}
}

func TestMatchByFingerprint(t *testing.T) {
	src := filepath.Join("/masters", "nointro", "zelda2.zip")
	inv := candidates.NewInventory()
	inv.Add(candidates.Entry{Fingerprint: "A1B2C3D4", ContainerPath: src, MemberName: "Zelda2.nes"})
	inv.Add(candidates.Entry{Fingerprint: "11111111", ContainerPath: "/masters/Contra (USA).nes", MemberName: "Contra (USA).nes"})

	layout := reconcile.Layout{TargetDir: "/roms/NES", CanonicalExt: "nes", ArchiveFormat: archive.FormatZip, Compress: true}
	missing := []manifest.Entry{
		{Name: "Zelda II", CRC: "A1B2C3D4"},
		{Name: "Contra"},
		{Name: "Mega Man 2", CRC: "DEADBEEF"},
	}

	matched, unmatched := reconcile.MatchByFingerprint(missing, inv, layout)
	if len(matched) != 1 {
		t.Fatalf("expected one exact match, got %+v", matched)
	}
	m := matched[0]
	if m.WantedName != "Zelda II" || m.SourceContainer != src || m.SourceMember != "Zelda2.nes" {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.DestinationPath != filepath.Join("/roms/NES", "Zelda II.zip") {
		t.Fatalf("unexpected destination %q", m.DestinationPath)
	}
	if m.Kind != reconcile.KindExact || m.Confidence != 1.0 || !m.InArchive() {
		t.Fatalf("unexpected match metadata %+v", m)
	}

	if len(unmatched) != 2 || unmatched[0].Name != "Contra" || unmatched[1].Name != "Mega Man 2" {
		t.Fatalf("unexpected unmatched %+v", unmatched)
	}
	if len(matched)+len(unmatched) != len(missing) {
		t.Fatal("every missing entry must be either matched or unmatched")
	}
}
