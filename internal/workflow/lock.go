package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".romset.lock"

// ErrTargetLocked is returned when another process holds a system's target
// directory.
var ErrTargetLocked = errors.New("target directory locked by another romset process")

// lockTarget takes an exclusive advisory lock on dir and returns the release
// function.
func lockTarget(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire target lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetLocked, dir)
	}
	return func() { _ = lock.Unlock() }, nil
}
