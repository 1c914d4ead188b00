// Package fingerprint defines the CRC-32 content fingerprint used to identify
// ROM images independently of their file names or containers.
package fingerprint

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"
)

// Fingerprint is a CRC-32 (IEEE) rendered as exactly eight upper-case hex
// digits. The zero value is the null fingerprint.
type Fingerprint string

// ErrInvalid reports a value that cannot be read as a CRC-32.
var ErrInvalid = errors.New("invalid crc32 fingerprint")

// FromCRC32 renders a raw checksum.
func FromCRC32(sum uint32) Fingerprint {
	return Fingerprint(fmt.Sprintf("%08X", sum))
}

// Parse normalizes a textual CRC: surrounding space and an optional 0x
// prefix are dropped, short values are left-padded with zeros and letters
// are upper-cased. An empty input yields the null fingerprint.
func Parse(value string) (Fingerprint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if len(value) > 2 && (value[:2] == "0x" || value[:2] == "0X") {
		value = value[2:]
	}
	if len(value) > 8 {
		return "", fmt.Errorf("%w: %q longer than 8 digits", ErrInvalid, value)
	}
	for _, r := range value {
		if !isHex(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalid, value)
		}
	}
	return Fingerprint(strings.Repeat("0", 8-len(value)) + strings.ToUpper(value)), nil
}

// Compute streams r through CRC-32 (IEEE).
func Compute(r io.Reader) (Fingerprint, error) {
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return FromCRC32(h.Sum32()), nil
}

// File computes the fingerprint of a file on disk without loading it fully
// into memory.
func File(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	fp, err := Compute(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fp, nil
}

// IsZero reports whether f is the null fingerprint.
func (f Fingerprint) IsZero() bool { return f == "" }

func (f Fingerprint) String() string { return string(f) }

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
