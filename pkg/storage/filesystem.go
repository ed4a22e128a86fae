package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage archives files into a directory on disk.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage returns a handle rooted at baseDir. The directory is
// created on first use.
func NewLocalStorage(baseDir string) *LocalStorage {
	if baseDir == "" {
		baseDir = "./data/archive"
	}
	return &LocalStorage{baseDir: baseDir}
}

// Archive moves srcPath to baseDir/name. A plain rename is tried first; when
// the archive lives on another device the file is copied and then removed.
func (s *LocalStorage) Archive(_ context.Context, srcPath, name string) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	dst := s.Path(name)

	if err := os.Rename(srcPath, dst); err == nil {
		return dst, nil
	} else if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("move %s: %w", srcPath, err)
	}

	if err := copyFile(srcPath, dst); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if err := os.Remove(srcPath); err != nil {
		return dst, fmt.Errorf("remove archived source: %w", err)
	}
	return dst, nil
}

// Path resolves a stored file name.
func (s *LocalStorage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open archive source: %w", err)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy archive file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flush archive file: %w", err)
	}
	return nil
}
