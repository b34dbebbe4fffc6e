//go:build !windows

package sessionlog

import (
	"os"
	"syscall"
)

// lockFile takes an exclusive advisory lock so concurrent hook processes
// serialize their appends.
func lockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
