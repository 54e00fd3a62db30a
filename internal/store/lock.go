package store

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BuildLock is the sentinel guarding concurrent builds of the same
// index directory. TryLock's non-blocking acquire gives the "abort
// silently if already held" semantics the build protocol requires; the
// lock's on-disk path doubles as the persisted sentinel, and because
// the OS releases a flock held by a killed process, a crash does not
// wedge future builds the way a bare O_EXCL file would.
type BuildLock struct {
	path string
	fl   *flock.Flock
}

// NewBuildLock returns the lock for an index directory. It does not
// acquire anything.
func NewBuildLock(paths Paths) *BuildLock {
	return &BuildLock{path: paths.Lock, fl: flock.New(paths.Lock)}
}

// TryAcquire attempts a non-blocking exclusive lock, creating the
// parent directory and sentinel file if needed. ok is false if another
// build already holds it.
func (l *BuildLock) TryAcquire() (ok bool, err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, err
	}
	return l.fl.TryLock()
}

// Release unlocks and removes the sentinel file. Builds call it on
// every exit path.
func (l *BuildLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
