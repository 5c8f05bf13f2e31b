package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"
)

// FileStorage performs physical I/O on absolute paths. Confinement of the
// path is the caller's job.
type FileStorage interface {
	Store(ctx context.Context, r io.Reader, path string) error
	Delete(path string) error
	CalculateSHA256(path string) (string, error)
}

// LocalFileStorage implements FileStorage on the local filesystem.
type LocalFileStorage struct{}

func NewLocalFileStorage() *LocalFileStorage {
	return &LocalFileStorage{}
}

// Store creates or overwrites path with the full content of r. The parent
// directory must exist. Cancellation while waiting for the lock leaves the
// file untouched; cancellation during the copy leaves the partially written
// file in place. r is not closed.
func (s *LocalFileStorage) Store(ctx context.Context, r io.Reader, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store file %s: %w", path, err)
	}
	defer f.Close()

	if err := lockExclusiveContext(ctx, f); err != nil {
		return fmt.Errorf("lock file %s: %w", path, err)
	}
	defer unlockFile(f)

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("store file %s: %w", path, err)
	}
	if _, err := io.Copy(f, &contextReader{ctx: ctx, r: r}); err != nil {
		return fmt.Errorf("store file %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("store file %s: %w", path, err)
	}
	return nil
}

// Delete removes path unless it is missing, not a regular file, or locked
// by another handle. The lock check and the removal are not atomic; a
// removal that loses that race is treated as a no-op.
func (s *LocalFileStorage) Delete(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !fi.Mode().IsRegular() {
		return nil
	}
	if s.IsLocked(path) {
		log.Printf("[storage] skip delete of locked file %s", path)
		return nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || s.IsLocked(path) {
			return nil
		}
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

// CalculateSHA256 returns the lowercase hex SHA-256 of the file, or "" if it does not exist.
func (s *LocalFileStorage) CalculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return "", fmt.Errorf("lock file %s: %w", path, err)
	}
	defer unlockFile(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsLocked reports whether exclusive access to path cannot be acquired right
// now. A missing file also counts as locked; callers that need to tell the
// two apart must check existence first.
//
// Locks are flock(2) advisory locks. On non-unix platforms only the open is
// attempted, so an existing readable file is never reported as locked there
// and Delete removes it even while another handle has it open.
func (s *LocalFileStorage) IsLocked(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	if err := tryLockExclusive(f); err != nil {
		return true
	}
	_ = unlockFile(f)
	return false
}

const lockPollInterval = 10 * time.Millisecond

// lockExclusiveContext polls a non-blocking exclusive lock until it is
// acquired or ctx is done.
func lockExclusiveContext(ctx context.Context, f *os.File) error {
	for {
		err := tryLockExclusive(f)
		if err == nil {
			return nil
		}
		if !isLockBusy(err) {
			return err
		}
		timer := time.NewTimer(lockPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
