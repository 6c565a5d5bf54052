// Package safefile writes report and config files without following
// symlinks. A scan can run inside an untrusted checkout, so a report path
// that happens to be a link must not clobber whatever it points at.
package safefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSymlink    = errors.New("refusing to write through a symlink")
	ErrNotRegular = errors.New("write target is not a regular file")
	ErrEmptyPath  = errors.New("path is required")
)

const dirPerm os.FileMode = 0o700

// Options tunes Write.
type Options struct {
	// Perm is applied to the written file. Zero means 0o600.
	Perm os.FileMode
	// MkdirAll creates missing parent directories.
	MkdirAll bool
}

// Write replaces path with data through a temporary file in the same
// directory, so readers never observe a partial report. A symlinked target
// or parent directory is refused.
func Write(path string, data []byte, opts Options) error {
	target, err := absPath(path)
	if err != nil {
		return err
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o600
	}

	dir := filepath.Dir(target)
	if opts.MkdirAll {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := checkDir(dir); err != nil {
		return err
	}
	if err := checkTarget(target); err != nil {
		return err
	}

	tmpPath, err := writeTemp(dir, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, ".mcp-sentinel-tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temporary file: %w", err)
	}
	name := tmp.Name()

	err = func() error {
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("write temporary file: %w", err)
		}
		if err := tmp.Chmod(perm); err != nil {
			return fmt.Errorf("chmod temporary file: %w", err)
		}
		return tmp.Sync()
	}()
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temporary file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// checkTarget accepts a missing file or an existing regular file.
func checkTarget(path string) error {
	info, err := os.Lstat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case info.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("%w: %s", ErrSymlink, path)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s", ErrSymlink, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	return nil
}

func absPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
