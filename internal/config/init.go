package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beejak/MCP-Sentinel/internal/safefile"
)

var ErrConfigExists = errors.New("config file already exists")

const defaultHeader = `# mcp-sentinel configuration.
# Values here are overridden by MCP_SENTINEL_* environment variables and
# by flags passed on the command line.
`

// Marshal renders c as YAML with a short explanatory header.
func (c Config) Marshal() ([]byte, error) {
	body, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte(defaultHeader), body...), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := safefile.Write(path, data, safefile.Options{Perm: 0o644}); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
