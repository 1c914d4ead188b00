package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/beano38/retro-manager/internal/fingerprint"
)

// rarBackend lists and extracts through the unrar command line.
type rarBackend struct {
	path    string
	tools   *Inspector
	listing []Entry
}

func openRar(ctx context.Context, path string, tools *Inspector) (backend, error) {
	run := runTool(ctx, tools.exec, tools.unrar, []string{"lt", rarPasswordArg(tools.password), path})
	if run.err != nil {
		if run.contains(passwordMarkers...) {
			return nil, &CorruptArchiveError{Path: path, Err: &AuthenticationError{Path: path, Reason: "archive headers are encrypted"}}
		}
		return nil, &CorruptArchiveError{Path: path, Err: run.failure()}
	}
	entries, err := parseRarListing(run.lines)
	if err != nil {
		return nil, &CorruptArchiveError{Path: path, Err: err}
	}
	return &rarBackend{path: path, tools: tools, listing: entries}, nil
}

func (b *rarBackend) entries(context.Context) ([]Entry, error) {
	return b.listing, nil
}

func (b *rarBackend) extract(ctx context.Context, entry Entry, destDir, password string) (string, error) {
	dest := destDir + string(os.PathSeparator)
	args := []string{"e", "-o+", "-y", rarPasswordArg(password), b.path, entry.Name, dest}

	run := runTool(ctx, b.tools.exec, b.tools.unrar, args)
	if run.err != nil {
		switch {
		case run.contains(passwordMarkers...):
			return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "wrong or missing password"}
		case run.contains("no files to extract"):
			return "", &MemberNotFoundError{Path: b.path, Member: entry.Name}
		case run.contains("checksum error", "is corrupt", "unexpected end of archive"):
			return "", &CorruptArchiveError{Path: b.path, Err: run.failure()}
		}
		return "", fmt.Errorf("unrar extract %s: %w", entry.Name, run.failure())
	}

	target := extractionTarget(destDir, entry)
	if _, err := os.Stat(target); err != nil {
		return "", &MemberNotFoundError{Path: b.path, Member: entry.Name}
	}
	return target, nil
}

func (b *rarBackend) close() error { return nil }

// rarPasswordArg avoids an interactive prompt when no password is set.
func rarPasswordArg(password string) string {
	if password == "" {
		return "-p-"
	}
	return "-p" + password
}

// parseRarListing reads the technical listing printed by `unrar lt`: one
// "Key: Value" block per member, each starting with a Name line.
func parseRarListing(lines []string) ([]Entry, error) {
	var (
		entries []Entry
		current map[string]string
		seen    bool
	)
	flush := func() {
		if current == nil {
			return
		}
		if entry, ok := rarRecordEntry(current); ok {
			entries = append(entries, entry)
		}
		current = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "Archive:") || strings.HasPrefix(line, "Details:") {
			seen = true
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "Name" {
			flush()
			current = map[string]string{}
		}
		if current == nil {
			continue
		}
		current[key] = strings.TrimSpace(value)
	}
	flush()

	if !seen {
		return nil, errors.New("unrar listing did not identify an archive")
	}
	return entries, nil
}

func rarRecordEntry(record map[string]string) (Entry, bool) {
	name := record["Name"]
	if name == "" {
		return Entry{}, false
	}
	if kind := strings.ToLower(record["Type"]); kind != "" && kind != "file" {
		return Entry{}, false
	}
	size, _ := strconv.ParseUint(record["Size"], 10, 64)
	var fp fingerprint.Fingerprint
	switch crc := record["CRC32"]; {
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
	}, true
}
