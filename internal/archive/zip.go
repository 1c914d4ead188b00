package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/beano38/retro-manager/internal/fileutil"
	"github.com/beano38/retro-manager/internal/fingerprint"
)

// zipFlagEncrypted is general purpose bit 0 of the local file header.
const zipFlagEncrypted = 0x1

type zipBackend struct {
	path   string
	reader *zip.ReadCloser
	tools  *Inspector
}

func openZip(path string, tools *Inspector) (backend, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, &CorruptArchiveError{Path: path, Err: err}
	}
	return &zipBackend{path: path, reader: reader, tools: tools}, nil
}

func (b *zipBackend) entries(context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(b.reader.File))
	for _, f := range b.reader.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries = append(entries, Entry{
			Name:        f.Name,
			Fingerprint: fingerprint.FromCRC32(f.CRC32),
			Size:        f.UncompressedSize64,
			Encrypted:   f.Flags&zipFlagEncrypted != 0,
		})
	}
	return entries, nil
}

func (b *zipBackend) extract(ctx context.Context, entry Entry, destDir, password string) (string, error) {
	if entry.Encrypted {
		return b.extractEncrypted(ctx, entry, destDir, password)
	}
	var file *zip.File
	for _, f := range b.reader.File {
		if f.Name == entry.Name {
			file = f
			break
		}
	}
	if file == nil {
		return "", &MemberNotFoundError{Path: b.path, Member: entry.Name}
	}

	rc, err := file.Open()
	if err != nil {
		return "", &CorruptArchiveError{Path: b.path, Err: err}
	}
	defer rc.Close()

	target := extractionTarget(destDir, entry)
	if _, err := fileutil.WriteStream(target, rc); err != nil {
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) {
			return "", &CorruptArchiveError{Path: b.path, Err: err}
		}
		return "", fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return target, nil
}

// extractEncrypted hands ZipCrypto/AES members to the 7-Zip tool, which
// handles both schemes.
func (b *zipBackend) extractEncrypted(ctx context.Context, entry Entry, destDir, password string) (string, error) {
	if password == "" {
		return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "member is encrypted and no password was supplied"}
	}
	if b.tools == nil || b.tools.sevenZip == "" {
		return "", &AuthenticationError{Path: b.path, Member: entry.Name, Reason: "encrypted zip members require tools.seven_zip"}
	}
	return sevenZipExtract(ctx, b.tools, b.path, entry, destDir, password)
}

func (b *zipBackend) close() error {
	if b.reader == nil {
		return nil
	}
	err := b.reader.Close()
	b.reader = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
