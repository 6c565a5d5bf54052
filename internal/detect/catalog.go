package detect

import (
	"fmt"
	"strings"

	"github.com/beejak/MCP-Sentinel/internal/checks"
	"github.com/beejak/MCP-Sentinel/internal/model"
)

type catalogDetector struct {
	catalog *checks.Catalog
}

// NewCatalogDetector returns a Detector that applies every pattern of cat to
// each line of the scanned content.
func NewCatalogDetector(cat *checks.Catalog) Detector {
	return &catalogDetector{catalog: cat}
}

func (d *catalogDetector) Name() string                  { return string(d.catalog.Family) }
func (d *catalogDetector) Type() model.VulnerabilityType { return d.catalog.Type }
func (d *catalogDetector) Implemented() bool             { return true }

func (d *catalogDetector) Detect(content, filePath string) ([]model.Finding, error) {
	var findings []model.Finding
	next := 1

	for idx, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if d.catalog.SkipComments && isCommentLine(line) {
			continue
		}
		for _, cp := range d.catalog.Compiled {
			if !cp.Matcher.MatchString(line) {
				continue
			}
			findings = append(findings, d.buildFinding(cp, filePath, line, idx+1, next))
			next++
		}
	}
	return findings, nil
}

func (d *catalogDetector) buildFinding(cp checks.CompiledPattern, filePath, line string, lineNo, seq int) model.Finding {
	def := d.catalog.Definition
	evidence := model.Evidence{"pattern": cp.Name}
	if cp.Language != "" {
		evidence["language"] = cp.Language
	}
	if def.CWE != "" {
		evidence["cwe"] = def.CWE
	}
	return model.NewFinding(model.FindingSpec{
		ID:          fmt.Sprintf("%s-%03d", def.IDPrefix, seq),
		Type:        def.Type,
		Severity:    cp.Severity,
		Title:       def.FindingTitle(cp.Pattern),
		Description: def.FindingDescription(cp.Pattern),
		Location: model.Location{
			File:   filePath,
			Line:   lineNo,
			Column: literalColumn(line, cp.Expr),
		},
		Impact:      def.Impact,
		Remediation: def.FindingRemediation(cp.Pattern),
		CodeSnippet: line,
		Confidence:  def.Confidence,
		Evidence:    evidence,
	})
}

// literalColumn is 1 plus the byte offset of expr taken literally in line,
// or 1 when expr does not appear verbatim. It is an approximation for any
// expression that uses classes, escapes or alternation.
func literalColumn(line, expr string) int {
	if i := strings.Index(line, expr); i >= 0 {
		return i + 1
	}
	return 1
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}
