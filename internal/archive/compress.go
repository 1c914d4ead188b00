package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/beano38/retro-manager/internal/logging"
)

// Compress wraps src into a single-member archive next to it named
// <src without extension>.<format>. The archive must not already exist.
// src is left in place.
func (i *Inspector) Compress(ctx context.Context, src string, format Format) (string, error) {
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + "." + string(format)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("compress %s: %w", dst, os.ErrExist)
	}

	var err error
	switch format {
	case FormatZip:
		err = compressZip(src, dst)
	case FormatSevenZip:
		err = i.compressSevenZip(ctx, src, dst)
	default:
		return "", &UnsupportedFormatError{Path: dst, Reason: "cannot write " + string(format) + " archives"}
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	i.logger.Debug("compressed",
		logging.String(logging.FieldSource, src),
		logging.String("archive", dst),
	)
	return dst, nil
}

func compressZip(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write zip member: %w", err)
	}
	return zw.Close()
}

func (i *Inspector) compressSevenZip(ctx context.Context, src, dst string) error {
	if i.sevenZip == "" {
		return errors.New("7z output requires tools.seven_zip")
	}
	run := runTool(ctx, i.exec, i.sevenZip, []string{"a", "-t7z", "-mx5", "-mmt4", "-spd", dst, src})
	if run.err != nil {
		return fmt.Errorf("7z compress %s: %w", src, run.failure())
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("7z compress %s: archive not produced: %w", src, err)
	}
	return nil
}
