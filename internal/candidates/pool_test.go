package candidates_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/candidates"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/testsupport"
)

func TestBuildFirstOccurrenceWins(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "nointro")
	second := filepath.Join(base, "goodset")

	zeldaFP := testsupport.WriteZip(t, filepath.Join(first, "zelda2.zip"),
		testsupport.Member{Name: "Zelda2.nes", Content: []byte("zelda-two")},
	)[0]
	contraFP := testsupport.WriteROM(t, filepath.Join(first, "Contra (USA).nes"), []byte("contra"))
	// Same Zelda content under another name in a later directory.
	testsupport.WriteROM(t, filepath.Join(second, "Zelda II (U).nes"), []byte("zelda-two"))
	megaFP := testsupport.WriteROM(t, filepath.Join(second, "Megaman 2 (U).nes"), []byte("megaman"))

	inv, err := candidates.Build(context.Background(), archive.NewInspector(), []string{first, second}, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if inv.Len() != 3 {
		t.Fatalf("expected 3 fingerprints, got %d", inv.Len())
	}

	zelda, ok := inv.Lookup(zeldaFP)
	if !ok {
		t.Fatal("expected zelda fingerprint present")
	}
	if zelda.ContainerPath != filepath.Join(first, "zelda2.zip") || zelda.MemberName != "Zelda2.nes" {
		t.Fatalf("expected first occurrence inside zip, got %+v", zelda)
	}
	if !zelda.InArchive() {
		t.Fatal("expected zip member to report InArchive")
	}

	contra, _ := inv.Lookup(contraFP)
	if contra.InArchive() || contra.MemberName != "Contra (USA).nes" {
		t.Fatalf("unexpected plain entry %+v", contra)
	}

	var order []string
	for _, e := range inv.Entries() {
		order = append(order, e.Fingerprint.String())
	}
	// Directory order, then name order: "Contra (USA).nes" < "zelda2.zip".
	want := []string{contraFP.String(), zeldaFP.String(), megaFP.String()}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("unexpected insertion order %v, want %v", order, want)
	}
}

func TestBuildDuplicateDirectoryIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteROM(t, filepath.Join(dir, "a.nes"), []byte("a"))
	testsupport.WriteROM(t, filepath.Join(dir, "b.nes"), []byte("b"))
	testsupport.WriteZip(t, filepath.Join(dir, "c.zip"), testsupport.Member{Name: "c.nes", Content: []byte("c")})

	once, err := candidates.Build(context.Background(), archive.NewInspector(), []string{dir}, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	twice, err := candidates.Build(context.Background(), archive.NewInspector(), []string{dir, dir}, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(once.Entries(), twice.Entries()) {
		t.Fatalf("duplicated directory changed inventory:\n%v\n%v", once.Entries(), twice.Entries())
	}
}

func TestBuildSkipsUnreadableCandidates(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteROM(t, filepath.Join(dir, "good.nes"), []byte("good"))
	if err := os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "needs-unrar.rar"), []byte("Rar!"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteROM(t, filepath.Join(dir, "nested", "deep.nes"), []byte("deep"))

	inv, err := candidates.Build(context.Background(), archive.NewInspector(), []string{dir, filepath.Join(dir, "missing")}, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if inv.Len() != 1 {
		t.Fatalf("expected only the readable top-level file, got %+v", inv.Entries())
	}
	if _, ok := inv.Lookup(good); !ok {
		t.Fatal("expected good.nes in inventory")
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteROM(t, filepath.Join(dir, "a.nes"), []byte("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := candidates.Build(ctx, archive.NewInspector(), []string{dir}, logging.NewNop()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestLookupNullFingerprint(t *testing.T) {
	inv := candidates.NewInventory()
	inv.Add(candidates.Entry{Fingerprint: "", ContainerPath: "/x/a.nes", MemberName: "a.nes"})
	if _, ok := inv.Lookup(""); ok {
		t.Fatal("null fingerprint must never match")
	}
}

func TestExpandDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"b", "a/inner", "a/other"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	testsupport.WriteROM(t, filepath.Join(root, "a", "file.nes"), []byte("x"))

	got := candidates.ExpandDirs(logging.NewNop(), root, filepath.Join(root, "missing"), filepath.Join(root, "a"))
	want := []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "inner"),
		filepath.Join(root, "a", "other"),
		filepath.Join(root, "b"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandDirs = %v, want %v", got, want)
	}
}
