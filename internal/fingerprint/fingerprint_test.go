package fingerprint_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beano38/retro-manager/internal/fingerprint"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    fingerprint.Fingerprint
		wantErr bool
	}{
		{in: "a1b2c3d4", want: "A1B2C3D4"},
		{in: " A1B2C3D4 ", want: "A1B2C3D4"},
		{in: "0x1f", want: "0000001F"},
		{in: "1234", want: "00001234"},
		{in: "", want: ""},
		{in: "123456789", wantErr: true},
		{in: "zzzz", wantErr: true},
	}
	for _, tt := range tests {
		got, err := fingerprint.Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, fingerprint.ErrInvalid) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalid", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeKnownValue(t *testing.T) {
	// CRC-32 of "123456789" is the standard check value CBF43926.
	got, err := fingerprint.Compute(strings.NewReader("123456789"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got != "CBF43926" {
		t.Fatalf("Compute = %q, want CBF43926", got)
	}
	empty, err := fingerprint.Compute(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Compute empty: %v", err)
	}
	if empty != "00000000" || empty.IsZero() {
		t.Fatalf("expected non-null zero checksum, got %q", empty)
	}
}

func TestFileIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nes")
	b := filepath.Join(dir, "renamed copy.bin")
	payload := []byte("NES\x1a rom bytes")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, payload, 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	first, err := fingerprint.File(a)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	again, err := fingerprint.File(a)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	other, err := fingerprint.File(b)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if first != again || first != other {
		t.Fatalf("expected identical fingerprints, got %q %q %q", first, again, other)
	}
	if len(first) != 8 || strings.ToUpper(string(first)) != string(first) {
		t.Fatalf("fingerprint not canonical: %q", first)
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := fingerprint.File(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
