package detect

import (
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/checks"
)

// Default builds one detector per family in checks.Order. A catalog that
// fails to compile is reported here, before any file is scanned.
func Default() ([]Detector, error) {
	out := make([]Detector, 0, len(checks.Order))
	for _, family := range checks.Order {
		d, err := ForFamily(family)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ForFamily builds the detector for a single family.
func ForFamily(family checks.Family) (Detector, error) {
	def, ok := checks.Lookup(family)
	if !ok {
		return nil, fmt.Errorf("unknown check family %q", family)
	}
	if !def.Implemented {
		return stubDetector{name: string(def.Family), typ: def.Type}, nil
	}
	cat, err := checks.Load(family)
	if err != nil {
		return nil, fmt.Errorf("load %s catalog: %w", family, err)
	}
	return NewCatalogDetector(cat), nil
}
