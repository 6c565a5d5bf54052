package report

import (
	"encoding/json"
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// GenerateJSON serializes the full result, indented, with a trailing newline.
func GenerateJSON(result *model.ScanResult, opts Options) ([]byte, error) {
	if result == nil {
		return nil, errNilResult
	}
	if opts.Redact {
		result = redactResult(result)
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scan result: %w", err)
	}
	return append(b, '\n'), nil
}
