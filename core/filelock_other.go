//go:build !unix

package core

import "os"

// Without flock only the open attempt in IsLocked is meaningful.

func lockShared(*os.File) error       { return nil }
func tryLockExclusive(*os.File) error { return nil }
func unlockFile(*os.File) error       { return nil }
func isLockBusy(error) bool           { return false }
