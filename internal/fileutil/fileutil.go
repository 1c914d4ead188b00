package fileutil

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"syscall"
)

// WriteStream creates dst (which must not exist) from r. A partially written
// dst is removed on failure.
func WriteStream(dst string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return written, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return written, err
	}
	return written, nil
}

// CopyFileVerified streams src to dst and checks the copy by size and CRC-32.
// Removes dst on mismatch. Returns the CRC-32 of the copied content.
func CopyFileVerified(src, dst string) (uint32, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcHasher := crc32.NewIEEE()
	written, err := WriteStream(dst, io.TeeReader(in, srcHasher))
	if err != nil {
		return 0, err
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	dstSum, err := fileCRC(dst)
	if err != nil {
		return 0, err
	}
	if dstSum != srcHasher.Sum32() {
		_ = os.Remove(dst)
		return 0, errors.New("copy checksum mismatch: file corrupted during copy")
	}
	return dstSum, nil
}

// MoveFile renames src to dst, falling back to a verified copy and delete
// when the two paths live on different filesystems. An existing dst is
// replaced.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	if _, err := CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("cross-device move: %w", err)
	}
	return os.Remove(src)
}

func fileCRC(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
