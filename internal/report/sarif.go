package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/version"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
	toolName     = "mcp-sentinel"
	toolURI      = "https://github.com/beejak/MCP-Sentinel"
)

// SARIF v2.1.0 types, the subset GitHub Code Scanning reads.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri"`
	Version        string      `json:"version"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	FullDescription  *sarifMessage       `json:"fullDescription,omitempty"`
	Help             *sarifMessage       `json:"help,omitempty"`
	DefaultConfig    *sarifDefaultConfig `json:"defaultConfiguration,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string           `json:"ruleId"`
	RuleIndex  int              `json:"ruleIndex"`
	Level      string           `json:"level"`
	Message    sarifMessage     `json:"message"`
	Locations  []sarifLocation  `json:"locations,omitempty"`
	Properties *sarifProperties `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

type sarifProperties struct {
	FindingID  string  `json:"findingId,omitempty"`
	Severity   string  `json:"severity"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
	CWE        string  `json:"cwe,omitempty"`
	Language   string  `json:"language,omitempty"`
}

// GenerateSARIF converts result into a SARIF 2.1.0 log with one rule per
// detection pattern.
func GenerateSARIF(result *model.ScanResult, opts Options) ([]byte, error) {
	if result == nil {
		return nil, errNilResult
	}
	if opts.Redact {
		result = redactResult(result)
	}
	b, err := json.MarshalIndent(buildSARIF(result), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sarif report: %w", err)
	}
	return append(b, '\n'), nil
}

func buildSARIF(result *model.ScanResult) sarifLog {
	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, f := range result.Findings {
		ruleID := sarifRuleID(f)
		level := mapSeverityToSARIF(f.Severity)

		idx, seen := ruleIndex[ruleID]
		if !seen {
			idx = len(rules)
			ruleIndex[ruleID] = idx
			rule := sarifRule{
				ID:               ruleID,
				Name:             f.Title,
				ShortDescription: sarifMessage{Text: f.Title},
				DefaultConfig:    &sarifDefaultConfig{Level: level},
			}
			if f.Description != "" {
				rule.FullDescription = &sarifMessage{Text: f.Description}
			}
			if f.Remediation != "" {
				rule.Help = &sarifMessage{Text: f.Remediation}
			}
			rules = append(rules, rule)
		}

		message := f.Description
		if message == "" {
			message = f.Title
		}

		results = append(results, sarifResult{
			RuleID:    ruleID,
			RuleIndex: idx,
			Level:     level,
			Message:   sarifMessage{Text: message},
			Locations: sarifLocations(result.Target, f),
			Properties: &sarifProperties{
				FindingID:  f.ID,
				Severity:   f.Severity.String(),
				Type:       string(f.Type),
				Confidence: f.Confidence,
				CWE:        f.EvidenceString("cwe"),
				Language:   f.EvidenceString("language"),
			},
		})
	}

	return sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           toolName,
					InformationURI: toolURI,
					Version:        version.Version,
					Rules:          rules,
				},
			},
			Results: results,
		}},
	}
}

func sarifLocations(target string, f model.Finding) []sarifLocation {
	file := strings.TrimSpace(f.Location.File)
	if file == "" {
		return nil
	}
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: artifactURI(target, file)},
		},
	}
	if f.Location.Line > 0 {
		region := &sarifRegion{StartLine: f.Location.Line, StartColumn: f.Location.Column}
		if f.CodeSnippet != "" {
			region.Snippet = &sarifMessage{Text: f.CodeSnippet}
		}
		loc.PhysicalLocation.Region = region
	}
	return []sarifLocation{loc}
}

// artifactURI makes file relative to the scan target when it lives inside
// it, so results line up with repository paths.
func artifactURI(target, file string) string {
	if target != "" {
		if rel, err := filepath.Rel(target, file); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			file = rel
		}
	}
	return filepath.ToSlash(file)
}

func sarifRuleID(f model.Finding) string {
	name := f.EvidenceString("pattern")
	if name == "" {
		name = f.Title
	}
	slug := slugify(name)
	if slug == "" {
		slug = "finding"
	}
	if f.Type == "" {
		return slug
	}
	return string(f.Type) + "/" + slug
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func mapSeverityToSARIF(sev model.Severity) string {
	switch sev {
	case model.SeverityCritical, model.SeverityHigh:
		return "error"
	case model.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
