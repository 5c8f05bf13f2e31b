package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidFilename is returned for names that are not a single path element.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrNoIdentity is returned when the context carries no authenticated user.
	ErrNoIdentity = errors.New("no authenticated identity")
)

// UserFileStorage confines every filename to <BasePath>/<username>/.
type UserFileStorage struct {
	files FileStorage
	opts  StorageOptions
	ids   IdentitySource
}

func NewUserFileStorage(files FileStorage, opts StorageOptions, ids IdentitySource) *UserFileStorage {
	return &UserFileStorage{files: files, opts: opts, ids: ids}
}

func (s *UserFileStorage) userDir(ctx context.Context) (string, error) {
	username := s.ids.CurrentUsername(ctx)
	if username == "" {
		return "", ErrNoIdentity
	}
	return filepath.Join(s.opts.BasePath, username), nil
}

// Resolve returns the absolute path for filename under the caller's directory.
func (s *UserFileStorage) Resolve(ctx context.Context, filename string) (string, error) {
	if !isSinglePathElement(filename) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	dir, err := s.userDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}

// Store creates the user directory on first use and writes r to filename.
func (s *UserFileStorage) Store(ctx context.Context, r io.Reader, filename string) error {
	path, err := s.Resolve(ctx, filename)
	if err != nil {
		return err
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	return s.files.Store(ctx, r, path)
}

// Delete removes filename on a best-effort basis.
func (s *UserFileStorage) Delete(ctx context.Context, filename string) error {
	path, err := s.Resolve(ctx, filename)
	if err != nil {
		return err
	}
	return s.files.Delete(path)
}

// CalculateSHA256 returns the hex digest of filename, or "" if it does not exist.
func (s *UserFileStorage) CalculateSHA256(ctx context.Context, filename string) (string, error) {
	path, err := s.Resolve(ctx, filename)
	if err != nil {
		return "", err
	}
	return s.files.CalculateSHA256(path)
}

// Exists reports whether a regular file named filename exists for the caller.
func (s *UserFileStorage) Exists(ctx context.Context, filename string) bool {
	path, err := s.Resolve(ctx, filename)
	if err != nil {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// ensureDir creates directory if not exists
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// isSinglePathElement rejects anything that could address a path outside
// the directory it is joined to.
func isSinglePathElement(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}
