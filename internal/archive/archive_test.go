package archive_test

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/fingerprint"
)

type stubExecutor struct {
	respond func(binary string, args []string) ([]string, error)
	calls   [][]string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onOutput func(string)) error {
	s.calls = append(s.calls, append([]string{binary}, args...))
	lines, err := s.respond(binary, args)
	for _, line := range lines {
		onOutput(line)
	}
	return err
}

type zipMember struct {
	name      string
	data      []byte
	crc       uint32
	raw       bool
	encrypted bool
}

func writeZip(t *testing.T, path string, members ...zipMember) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		if !m.raw {
			w, err := zw.Create(m.name)
			if err != nil {
				t.Fatalf("create member: %v", err)
			}
			if _, err := w.Write(m.data); err != nil {
				t.Fatalf("write member: %v", err)
			}
			continue
		}
		header := &zip.FileHeader{
			Name:               m.name,
			Method:             zip.Store,
			CRC32:              m.crc,
			CompressedSize64:   uint64(len(m.data)),
			UncompressedSize64: uint64(len(m.data)),
		}
		if m.encrypted {
			header.Flags |= 0x1
		}
		w, err := zw.CreateRaw(header)
		if err != nil {
			t.Fatalf("create raw member: %v", err)
		}
		if _, err := w.Write(m.data); err != nil {
			t.Fatalf("write raw member: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

func openEntries(t *testing.T, inspector *archive.Inspector, path string) []archive.Entry {
	t.Helper()
	h, err := inspector.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	t.Cleanup(func() { _ = h.Close() })
	entries, err := h.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries(%s): %v", path, err)
	}
	return entries
}

func TestOpenPlainFileComputesCRC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Contra (USA).nes")
	payload := []byte("contra rom image")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	entries := openEntries(t, archive.NewInspector(), path)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Name != "Contra (USA).nes" {
		t.Fatalf("unexpected member name %q", entries[0].Name)
	}
	if entries[0].Fingerprint != fingerprint.FromCRC32(crc32.ChecksumIEEE(payload)) {
		t.Fatalf("unexpected fingerprint %q", entries[0].Fingerprint)
	}
}

func TestOpenZipUsesMetadataCRC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zelda2.zip")
	writeZip(t, path,
		zipMember{name: "Zelda2.nes", data: []byte("zelda"), crc: 0xa1b2c3d4, raw: true},
		zipMember{name: "docs/", raw: true},
	)

	entries := openEntries(t, archive.NewInspector(), path)
	if len(entries) != 1 {
		t.Fatalf("expected directories to be skipped, got %+v", entries)
	}
	if entries[0].Fingerprint != "A1B2C3D4" {
		t.Fatalf("expected metadata CRC A1B2C3D4, got %q", entries[0].Fingerprint)
	}
	if entries[0].Name != "Zelda2.nes" {
		t.Fatalf("unexpected member name %q", entries[0].Name)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(corrupt, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	corrupt7z := filepath.Join(dir, "broken.7z")
	if err := os.WriteFile(corrupt7z, []byte("not a 7z"), 0o644); err != nil {
		t.Fatal(err)
	}
	rar := filepath.Join(dir, "game.rar")
	if err := os.WriteFile(rar, []byte("Rar!"), 0o644); err != nil {
		t.Fatal(err)
	}
	subdir := filepath.Join(dir, "folder.zip")
	if err := os.Mkdir(subdir, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"corrupt zip", corrupt, archive.ErrCorruptArchive},
		{"corrupt 7z in-process", corrupt7z, archive.ErrCorruptArchive},
		{"rar without tool", rar, archive.ErrUnsupportedFormat},
		{"directory", subdir, archive.ErrUnsupportedFormat},
		{"missing", filepath.Join(dir, "missing.bin"), archive.ErrUnsupportedFormat},
	}
	inspector := archive.NewInspector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inspector.Open(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExtractZipMember(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.zip")
	writeZip(t, path, zipMember{name: "sub/Mega Man 2 (U).nes", data: []byte("megaman")})

	h, err := archive.NewInspector().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	dest := filepath.Join(dir, "out")
	got, err := h.Extract(context.Background(), "sub/Mega Man 2 (U).nes", dest, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != filepath.Join(dest, "Mega Man 2 (U).nes") {
		t.Fatalf("unexpected extraction path %q", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "megaman" {
		t.Fatalf("unexpected content %q", data)
	}

	_, err = h.Extract(context.Background(), "missing.nes", dest, "")
	var notFound *archive.MemberNotFoundError
	if !errors.As(err, &notFound) || notFound.Member != "missing.nes" {
		t.Fatalf("expected MemberNotFoundError, got %v", err)
	}
}

func TestExtractEncryptedZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.zip")
	writeZip(t, path, zipMember{name: "Locked.nes", data: []byte("ciphertext"), crc: 0x0badf00d, raw: true, encrypted: true})

	t.Run("no password", func(t *testing.T) {
		h, err := archive.NewInspector().Open(context.Background(), path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer h.Close()
		_, err = h.Extract(context.Background(), "Locked.nes", filepath.Join(dir, "a"), "")
		if !errors.Is(err, archive.ErrAuthentication) {
			t.Fatalf("expected authentication error, got %v", err)
		}
	})

	t.Run("delegates to 7z", func(t *testing.T) {
		exec := &stubExecutor{respond: func(_ string, args []string) ([]string, error) {
			if args[0] != "e" {
				t.Fatalf("unexpected 7z command %v", args)
			}
			dest := ""
			for _, arg := range args {
				if strings.HasPrefix(arg, "-o") {
					dest = strings.TrimPrefix(arg, "-o")
				}
			}
			if err := os.WriteFile(filepath.Join(dest, "Locked.nes"), []byte("plain"), 0o644); err != nil {
				t.Fatal(err)
			}
			return []string{"Everything is Ok"}, nil
		}}
		inspector := archive.NewInspector(archive.WithSevenZip("7z"), archive.WithExecutor(exec))
		h, err := inspector.Open(context.Background(), path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer h.Close()
		got, err := h.Extract(context.Background(), "Locked.nes", filepath.Join(dir, "b"), "hunter2")
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if filepath.Base(got) != "Locked.nes" {
			t.Fatalf("unexpected path %q", got)
		}
		if !containsArg(exec.calls[0], "-phunter2") {
			t.Fatalf("expected password argument, got %v", exec.calls[0])
		}
	})
}

const sevenZipListing = `
7-Zip [64] 16.02 : Copyright (c) 1999-2016 Igor Pavlov : 2016-05-21

Scanning the drive for archives:
1 file, 1234 bytes (2 KiB)

Listing archive: /roms/pack.7z

--
Path = /roms/pack.7z
Type = 7z
Physical Size = 1234
Headers Size = 170
Method = LZMA2:24
Solid = +
Blocks = 1

----------
Path = docs
Size = 0
Packed Size = 0
Modified = 2019-05-01 10:00:00
Attributes = D drwxr-xr-x
CRC =
Encrypted = -
Method =
Block =

Path = docs/Mega Man 2 (U).nes
Size = 262160
Packed Size = 1000
Modified = 2019-05-01 10:00:00
Attributes = A -rw-r--r--
CRC = 5E3C2D1A
Encrypted = -
Method = LZMA2:24
Block = 0

Path = empty.nes
Size = 0
Packed Size = 0
Attributes = A -rw-r--r--
CRC =
Encrypted = -
`

func TestSevenZipToolListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.7z")
	if err := os.WriteFile(path, []byte("7z"), 0o644); err != nil {
		t.Fatal(err)
	}
	exec := &stubExecutor{respond: func(_ string, args []string) ([]string, error) {
		return strings.Split(sevenZipListing, "\n"), nil
	}}
	entries := openEntries(t, archive.NewInspector(archive.WithSevenZip("7z"), archive.WithExecutor(exec)), path)

	if len(entries) != 2 {
		t.Fatalf("expected two file entries, got %+v", entries)
	}
	if entries[0].Name != "docs/Mega Man 2 (U).nes" || entries[0].Fingerprint != "5E3C2D1A" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[0].BaseName() != "Mega Man 2 (U).nes" {
		t.Fatalf("unexpected base name %q", entries[0].BaseName())
	}
	if entries[1].Fingerprint != "00000000" {
		t.Fatalf("expected empty member to carry the empty CRC, got %q", entries[1].Fingerprint)
	}
	if got := exec.calls[0]; got[1] != "l" || got[2] != "-slt" {
		t.Fatalf("unexpected listing command %v", got)
	}
}

func TestSevenZipToolFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.7z")
	if err := os.WriteFile(path, []byte("7z"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("corrupt listing", func(t *testing.T) {
		exec := &stubExecutor{respond: func(string, []string) ([]string, error) {
			return []string{"ERROR: /roms/pack.7z", "Can not open the file as archive"}, errors.New("exit status 2")
		}}
		_, err := archive.NewInspector(archive.WithSevenZip("7z"), archive.WithExecutor(exec)).Open(context.Background(), path)
		if !errors.Is(err, archive.ErrCorruptArchive) {
			t.Fatalf("expected corrupt archive, got %v", err)
		}
	})

	t.Run("wrong password on extract", func(t *testing.T) {
		exec := &stubExecutor{respond: func(_ string, args []string) ([]string, error) {
			if args[0] == "l" {
				return strings.Split(sevenZipListing, "\n"), nil
			}
			return []string{"ERROR: Wrong password : empty.nes"}, errors.New("exit status 2")
		}}
		h, err := archive.NewInspector(archive.WithSevenZip("7z"), archive.WithExecutor(exec)).Open(context.Background(), path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		_, err = h.Extract(context.Background(), "empty.nes", t.TempDir(), "nope")
		var authErr *archive.AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthenticationError, got %v", err)
		}
	})
}

const rarListing = `
UNRAR 6.24 freeware      Copyright (c) 1993-2023 Alexander Roshal

Archive: /roms/contra.rar
Details: RAR 5

        Name: Contra (U).nes
        Type: File
        Size: 131088
 Packed size: 90000
       Ratio: 68%
       mtime: 2018-01-01 12:00:00,000000000
  Attributes: -rw-r--r--
       CRC32: 7C2B9A11
     Host OS: Unix
 Compression: RAR 5.0(v50) -m3 -md=1M

        Name: extras
        Type: Directory
`

func TestRarToolListingAndExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contra.rar")
	if err := os.WriteFile(path, []byte("Rar!"), 0o644); err != nil {
		t.Fatal(err)
	}
	exec := &stubExecutor{respond: func(_ string, args []string) ([]string, error) {
		switch args[0] {
		case "lt":
			return strings.Split(rarListing, "\n"), nil
		case "e":
			dest := args[len(args)-1]
			if err := os.WriteFile(filepath.Join(dest, "Contra (U).nes"), []byte("contra"), 0o644); err != nil {
				t.Fatal(err)
			}
			return []string{"All OK"}, nil
		}
		return nil, errors.New("unexpected command")
	}}
	inspector := archive.NewInspector(archive.WithUnrar("unrar"), archive.WithExecutor(exec))
	h, err := inspector.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entries, err := h.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Fingerprint != "7C2B9A11" {
		t.Fatalf("unexpected rar entries %+v", entries)
	}
	if !containsArg(exec.calls[0], "-p-") {
		t.Fatalf("expected non-interactive password flag, got %v", exec.calls[0])
	}

	got, err := h.Extract(context.Background(), "Contra (U).nes", filepath.Join(dir, "out"), "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if filepath.Base(got) != "Contra (U).nes" {
		t.Fatalf("unexpected extraction path %q", got)
	}
}

func TestCompressZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Zelda II.nes")
	payload := []byte("zelda ii rom image")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	inspector := archive.NewInspector()

	dst, err := inspector.Compress(context.Background(), src, archive.FormatZip)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if dst != filepath.Join(dir, "Zelda II.zip") {
		t.Fatalf("unexpected archive path %q", dst)
	}
	entries := openEntries(t, inspector, dst)
	if len(entries) != 1 || entries[0].Name != "Zelda II.nes" {
		t.Fatalf("unexpected archive entries %+v", entries)
	}
	if entries[0].Fingerprint != fingerprint.FromCRC32(crc32.ChecksumIEEE(payload)) {
		t.Fatalf("archive CRC does not match source: %q", entries[0].Fingerprint)
	}

	if _, err := inspector.Compress(context.Background(), src, archive.FormatZip); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrExist on second compress, got %v", err)
	}
	if _, err := inspector.Compress(context.Background(), src, archive.FormatRar); !errors.Is(err, archive.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported rar output, got %v", err)
	}
}

func TestIsArchiveExt(t *testing.T) {
	for ext, want := range map[string]bool{".zip": true, "7Z": true, ".RAR": true, ".nes": false, "": false} {
		if got := archive.IsArchiveExt(ext); got != want {
			t.Errorf("IsArchiveExt(%q) = %v, want %v", ext, got, want)
		}
	}
}

func containsArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}
