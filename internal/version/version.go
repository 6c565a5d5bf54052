package version

import "fmt"

// Version and Commit are set at build time via ldflags:
//
//	-ldflags "-X github.com/beejak/MCP-Sentinel/internal/version.Version=v1.0.0"
//
// When built without ldflags Version defaults to "dev".
var (
	Version = "dev"
	Commit  = ""
)

// String renders the version line printed by the CLI.
func String() string {
	if Commit == "" {
		return fmt.Sprintf("mcp-sentinel %s", Version)
	}
	return fmt.Sprintf("mcp-sentinel %s (%s)", Version, Commit)
}
