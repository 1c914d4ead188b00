package testsupport

import (
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/beano38/retro-manager/internal/fingerprint"
)

// WriteROM writes content to path, creating parent directories, and returns
// its fingerprint.
func WriteROM(t testing.TB, path string, content []byte) fingerprint.Fingerprint {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return fingerprint.FromCRC32(crc32.ChecksumIEEE(content))
}

// Member is one file stored by WriteZip.
type Member struct {
	Name    string
	Content []byte
}

// WriteZip writes a deflated zip archive with the given members and returns
// the member fingerprints in order.
func WriteZip(t testing.TB, path string, members ...Member) []fingerprint.Fingerprint {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	fps := make([]fingerprint.Fingerprint, 0, len(members))
	for _, m := range members {
		w, err := zw.Create(m.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", m.Name, err)
		}
		if _, err := w.Write(m.Content); err != nil {
			t.Fatalf("zip write %s: %v", m.Name, err)
		}
		fps = append(fps, fingerprint.FromCRC32(crc32.ChecksumIEEE(m.Content)))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close %s: %v", path, err)
	}
	return fps
}

// ZipMembers lists the member names and fingerprints of a zip archive.
func ZipMembers(t testing.TB, path string) map[string]fingerprint.Fingerprint {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip %s: %v", path, err)
	}
	defer r.Close()
	out := make(map[string]fingerprint.Fingerprint, len(r.File))
	for _, f := range r.File {
		out[f.Name] = fingerprint.FromCRC32(f.CRC32)
	}
	return out
}
