package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/beano38/retro-manager/internal/fileutil"
	"github.com/beano38/retro-manager/internal/fingerprint"
)

// sevenZipToolBackend lists and extracts through the 7-Zip command line.
type sevenZipToolBackend struct {
	path    string
	tools   *Inspector
	listing []Entry
}

func openSevenZipTool(ctx context.Context, path string, tools *Inspector) (backend, error) {
	args := []string{"l", "-slt"}
	if tools.password != "" {
		args = append(args, "-p"+tools.password)
	}
	args = append(args, path)

	run := runTool(ctx, tools.exec, tools.sevenZip, args)
	if run.err != nil {
		if run.contains(passwordMarkers...) {
			return nil, &CorruptArchiveError{Path: path, Err: &AuthenticationError{Path: path, Reason: "archive headers are encrypted"}}
		}
		return nil, &CorruptArchiveError{Path: path, Err: run.failure()}
	}
	entries, err := parseSevenZipListing(run.lines)
	if err != nil {
		return nil, &CorruptArchiveError{Path: path, Err: err}
	}
	return &sevenZipToolBackend{path: path, tools: tools, listing: entries}, nil
}

func (b *sevenZipToolBackend) entries(context.Context) ([]Entry, error) {
	return b.listing, nil
}

func (b *sevenZipToolBackend) extract(ctx context.Context, entry Entry, destDir, password string) (string, error) {
	return sevenZipExtract(ctx, b.tools, b.path, entry, destDir, password)
}

func (b *sevenZipToolBackend) close() error { return nil }

// sevenZipExtract runs `7z e` for a single member. -spd turns off wildcard
// matching so names like "Game [!].nes" are taken literally.
func sevenZipExtract(ctx context.Context, tools *Inspector, path string, entry Entry, destDir, password string) (string, error) {
	args := []string{"e", "-y", "-spd", "-o" + destDir}
	if password != "" {
		args = append(args, "-p"+password)
	}
	args = append(args, path, entry.Name)

	run := runTool(ctx, tools.exec, tools.sevenZip, args)
	if run.err != nil {
		if run.contains(passwordMarkers...) {
			return "", &AuthenticationError{Path: path, Member: entry.Name, Reason: "wrong or missing password"}
		}
		if run.contains("data error", "crc failed", "headers error", "unexpected end") {
			return "", &CorruptArchiveError{Path: path, Err: run.failure()}
		}
		return "", fmt.Errorf("7z extract %s: %w", entry.Name, run.failure())
	}

	target := extractionTarget(destDir, entry)
	if _, err := os.Stat(target); err != nil {
		return "", &MemberNotFoundError{Path: path, Member: entry.Name}
	}
	return target, nil
}

// parseSevenZipListing reads the technical listing printed by `7z l -slt`.
// Records follow the "----------" separator as "Key = Value" lines with a
// blank line between members.
func parseSevenZipListing(lines []string) ([]Entry, error) {
	var (
		entries   []Entry
		inMembers bool
		record    map[string]string
	)
	flush := func() {
		if record == nil {
			return
		}
		if entry, ok := sevenZipRecordEntry(record); ok {
			entries = append(entries, entry)
		}
		record = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !inMembers {
			if strings.HasPrefix(line, "----------") {
				inMembers = true
			}
			continue
		}
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, " = ")
		if !ok {
			key, value, ok = strings.Cut(line, " =")
			if !ok {
				continue
			}
		}
		if record == nil {
			record = map[string]string{}
		}
		record[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	flush()

	if !inMembers {
		return nil, errors.New("7z listing did not contain a member table")
	}
	return entries, nil
}

func sevenZipRecordEntry(record map[string]string) (Entry, bool) {
	name := record["Path"]
	if name == "" {
		return Entry{}, false
	}
	if record["Folder"] == "+" {
		return Entry{}, false
	}
	if attrs := strings.Fields(record["Attributes"]); len(attrs) > 0 && strings.Contains(attrs[0], "D") {
		return Entry{}, false
	}
	size, _ := strconv.ParseUint(record["Size"], 10, 64)

	crc := record["CRC"]
	var fp fingerprint.Fingerprint
	switch {
	case crc != "":
		parsed, err := fingerprint.Parse(crc)
		if err != nil {
			return Entry{}, false
		}
		fp = parsed
	case size == 0:
		fp = fingerprint.FromCRC32(0)
	default:
		return Entry{}, false
	}
	return Entry{
		Name:        name,
		Fingerprint: fp,
		Size:        size,
		Encrypted:   record["Encrypted"] == "+",
	}, true
}

// sevenZipNativeBackend reads .7z containers in-process when no 7-Zip
// executable is configured.
type sevenZipNativeBackend struct {
	path     string
	password string
	reader   *sevenzip.ReadCloser
}

func openSevenZipNative(path, password string) (backend, error) {
	reader, err := openSevenZipReader(path, password)
	if err != nil {
		if isSevenZipEncrypted(err) {
			return nil, &CorruptArchiveError{Path: path, Err: &AuthenticationError{Path: path, Reason: "archive headers are encrypted"}}
		}
		return nil, &CorruptArchiveError{Path: path, Err: err}
	}
	return &sevenZipNativeBackend{path: path, password: password, reader: reader}, nil
}

func openSevenZipReader(path, password string) (*sevenzip.ReadCloser, error) {
	if password != "" {
		return sevenzip.OpenReaderWithPassword(path, password)
	}
	return sevenzip.OpenReader(path)
}

func (b *sevenZipNativeBackend) entries(context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(b.reader.File))
	for _, f := range b.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:        f.Name,
			Fingerprint: fingerprint.FromCRC32(f.CRC32),
			Size:        f.UncompressedSize,
		})
	}
	return entries, nil
}

func (b *sevenZipNativeBackend) extract(_ context.Context, entry Entry, destDir, password string) (string, error) {
	reader := b.reader
	if password != b.password {
		reopened, err := openSevenZipReader(b.path, password)
		if err != nil {
			if isSevenZipEncrypted(err) {
				return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "wrong or missing password"}
			}
			return "", &CorruptArchiveError{Path: b.path, Err: err}
		}
		defer reopened.Close()
		reader = reopened
	}

	for _, f := range reader.File {
		if f.Name != entry.Name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			if isSevenZipEncrypted(err) {
				return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "wrong or missing password"}
			}
			return "", &CorruptArchiveError{Path: b.path, Err: err}
		}
		defer rc.Close()

		target := extractionTarget(destDir, entry)
		if _, err := fileutil.WriteStream(target, rc); err != nil {
			if isSevenZipEncrypted(err) {
				return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "wrong or missing password"}
			}
			if errors.Is(err, os.ErrExist) {
				return "", fmt.Errorf("extract %s: %w", entry.Name, err)
			}
			return "", &CorruptArchiveError{Path: b.path, Err: err}
		}
		return target, nil
	}
	return "", &MemberNotFoundError{Path: b.path, Member: entry.Name}
}

func (b *sevenZipNativeBackend) close() error {
	if b.reader == nil {
		return nil
	}
	err := b.reader.Close()
	b.reader = nil
	return err
}

func isSevenZipEncrypted(err error) bool {
	var readErr *sevenzip.ReadError
	return errors.As(err, &readErr) && readErr.Encrypted
}
