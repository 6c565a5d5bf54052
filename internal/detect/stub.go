package detect

import "github.com/beejak/MCP-Sentinel/internal/model"

// stubDetector stands in for a family that has no catalog yet. It never
// reports anything.
type stubDetector struct {
	name string
	typ  model.VulnerabilityType
}

func (d stubDetector) Name() string                                   { return d.name }
func (d stubDetector) Type() model.VulnerabilityType                  { return d.typ }
func (d stubDetector) Implemented() bool                              { return false }
func (d stubDetector) Detect(string, string) ([]model.Finding, error) { return nil, nil }
