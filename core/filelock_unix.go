//go:build unix

package core

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Advisory flock(2) locks. Separate opens of the same file conflict even
// within one process, which is what the delete-side lock check relies on.

func lockShared(f *os.File) error {
	return flock(f, unix.LOCK_SH)
}

func tryLockExclusive(f *os.File) error {
	return flock(f, unix.LOCK_EX|unix.LOCK_NB)
}

func unlockFile(f *os.File) error {
	return flock(f, unix.LOCK_UN)
}

// isLockBusy reports whether a non-blocking lock failed only because another handle holds it.
func isLockBusy(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK)
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}
