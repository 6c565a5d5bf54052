package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

var (
	ErrBinary   = errors.New("binary content")
	ErrNotUTF8  = errors.New("content is not valid UTF-8")
	ErrTooLarge = errors.New("file exceeds size limit")
)

// ReadFile loads path as text. It fails with ErrTooLarge when the file is
// bigger than maxBytes (maxBytes <= 0 disables the limit), ErrBinary when
// the content contains a NUL byte, and ErrNotUTF8 when it is not valid UTF-8.
func ReadFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("read %s: not a regular file", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("read %s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if maxBytes > 0 && int64(len(b)) > maxBytes {
		return "", fmt.Errorf("read %s: %w", path, ErrTooLarge)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return "", fmt.Errorf("read %s: %w", path, ErrBinary)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("read %s: %w", path, ErrNotUTF8)
	}
	return string(b), nil
}
