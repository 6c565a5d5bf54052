package report

import (
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/safefile"
)

// WriteFile stores a rendered report at path, creating the parent directory
// when needed. The write is atomic and refuses symlinked targets.
func WriteFile(path string, data []byte) error {
	if err := safefile.Write(path, data, safefile.Options{Perm: 0o600, MkdirAll: true}); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
