package archive

import (
	"errors"
	"fmt"
)

// Sentinels usable with errors.Is; the typed errors below match them.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrMemberNotFound    = errors.New("member not found")
	ErrAuthentication    = errors.New("archive authentication failed")
)

// UnsupportedFormatError reports a path that is neither a recognised
// container nor a plain regular file.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUnsupportedFormat, e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// CorruptArchiveError reports a recognised container whose metadata could not
// be read.
type CorruptArchiveError struct {
	Path string
	Err  error
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCorruptArchive, e.Path, e.Err)
}

func (e *CorruptArchiveError) Unwrap() error { return e.Err }

func (e *CorruptArchiveError) Is(target error) bool { return target == ErrCorruptArchive }

// MemberNotFoundError reports an extraction request for a member the
// container does not hold.
type MemberNotFoundError struct {
	Path   string
	Member string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q in %s", ErrMemberNotFound, e.Member, e.Path)
}

func (e *MemberNotFoundError) Is(target error) bool { return target == ErrMemberNotFound }

// AuthenticationError reports an encrypted member that could not be opened
// with the supplied credential.
type AuthenticationError struct {
	Path   string
	Member string
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("%s: %s: %s", ErrAuthentication, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %q in %s: %s", ErrAuthentication, e.Member, e.Path, e.Reason)
}

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }
