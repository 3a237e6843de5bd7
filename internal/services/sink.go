package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/m3ux/internal/shared"
)

// Sink receives the rendered playlist.
type Sink interface {
	Write(path, text string) error
	Exists(path string) bool
}

// FileSink writes files atomically via a temp file in the target directory.
type FileSink struct{}

// Write replaces path with text, creating the parent directory when missing.
func (FileSink) Write(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", shared.ErrSink, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", shared.ErrSink, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write output: %w", shared.ErrSink, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close output: %w", shared.ErrSink, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("%w: failed to set output mode: %w", shared.ErrSink, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: failed to replace output: %w", shared.ErrSink, err)
	}
	return nil
}

// Exists reports whether path exists.
func (FileSink) Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
