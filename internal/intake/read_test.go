package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, content []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, content, 0o600))
		return path
	}

	t.Run("text", func(t *testing.T) {
		got, err := ReadFile(write("ok.py", []byte("x = 1\nprint('héllo')\n")), 1024)
		require.NoError(t, err)
		assert.Equal(t, "x = 1\nprint('héllo')\n", got)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := ReadFile(write("empty.py", nil), 1024)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("binary", func(t *testing.T) {
		_, err := ReadFile(write("blob.dat", []byte{'a', 0, 'b'}), 1024)
		assert.ErrorIs(t, err, ErrBinary)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := ReadFile(write("latin1.txt", []byte{'c', 'a', 'f', 0xe9}), 1024)
		assert.ErrorIs(t, err, ErrNotUTF8)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := ReadFile(write("big.txt", []byte("0123456789")), 5)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("exactly at limit", func(t *testing.T) {
		got, err := ReadFile(write("edge.txt", []byte("01234")), 5)
		require.NoError(t, err)
		assert.Equal(t, "01234", got)
	})

	t.Run("no limit", func(t *testing.T) {
		got, err := ReadFile(write("nolimit.txt", []byte("0123456789")), 0)
		require.NoError(t, err)
		assert.Len(t, got, 10)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(dir, "missing.txt"), 1024)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.Mkdir(sub, 0o700))
		_, err := ReadFile(sub, 1024)
		assert.Error(t, err)
	})
}
