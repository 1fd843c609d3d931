//go:build windows
// +build windows

package fs

import (
	"os"
)

// flockTryExclusive acquires an exclusive lock on the file
// Note: Windows doesn't have direct flock support, so this is a no-op for now
// TODO: Implement Windows file locking using LockFileEx
func flockTryExclusive(f *os.File) error {
	// No-op on Windows for now
	return nil
}

// flockUnlock releases the lock on the file
func flockUnlock(f *os.File) error {
	// No-op on Windows for now
	return nil
}
