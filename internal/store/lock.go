package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another run holds the store lock.
var ErrLocked = errors.New("another structmeta run holds the store lock")

// RunLock is the exclusive lock held for the duration of one run.
type RunLock struct {
	lock *flock.Flock
	path string
}

// LockPath returns the lock file used for the store at storePath.
func LockPath(storePath string) string {
	return storePath + ".lock"
}

// AcquireRunLock takes the run lock for storePath without blocking.
func AcquireRunLock(storePath string) (*RunLock, error) {
	path := LockPath(storePath)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure lock directory: %w", err)
		}
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &RunLock{lock: lock, path: path}, nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. The lock file is left in place.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
