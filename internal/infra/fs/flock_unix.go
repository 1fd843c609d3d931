//go:build !windows
// +build !windows

package fs

import (
	"os"
	"syscall"
)

// flockTryExclusive acquires an exclusive lock on the file without blocking.
// Returns an error when another process already holds the lock.
func flockTryExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// flockUnlock releases the lock on the file
func flockUnlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
