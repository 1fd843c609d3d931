package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// RunLock is a PID-stamped exclusive lock file that keeps two processes from
// driving the same home directory at once.
type RunLock struct {
	f    *os.File
	path string
}

// AcquireRunLock takes the lock at path, failing fast when another process
// holds it. The lock file records the holder's PID for diagnostics.
func AcquireRunLock(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := flockTryExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("another run is already active (lock %s held): %w", path, err)
	}

	f.Truncate(0)
	f.WriteString(strconv.Itoa(os.Getpid()))
	f.Sync()

	return &RunLock{f: f, path: path}, nil
}

// Release unlocks and removes the lock file.
func (l *RunLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	if err := flockUnlock(l.f); err != nil {
		l.f.Close()
		return err
	}
	if err := l.f.Close(); err != nil {
		return err
	}
	os.Remove(l.path)
	l.f = nil
	return nil
}
