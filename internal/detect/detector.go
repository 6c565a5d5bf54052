// Package detect turns pattern catalogs into located, scored findings.
//
// Every Detector is stateless between calls: finding ids restart at 1 on
// each Detect call, so one value can serve many goroutines at once.
package detect

import (
	"errors"
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// ErrDetectorPanic marks a detector invocation that panicked instead of
// returning.
var ErrDetectorPanic = errors.New("detector panicked")

// Detector scans the content of one file for one vulnerability family.
type Detector interface {
	Name() string
	Type() model.VulnerabilityType
	Implemented() bool
	Detect(content, filePath string) ([]model.Finding, error)
}

// Run invokes d and converts a panic into an error wrapping ErrDetectorPanic.
// The failure is confined to this call; the caller continues with the next
// detector or file.
func Run(d Detector, content, filePath string) (findings []model.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("%s on %s: %w: %v", d.Name(), filePath, ErrDetectorPanic, r)
		}
	}()
	findings, err = d.Detect(content, filePath)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", d.Name(), filePath, err)
	}
	return findings, nil
}
