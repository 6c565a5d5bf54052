package checks

import (
	regexp "github.com/wasilibs/go-re2"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// Family identifies one vulnerability family and its detector.
type Family string

const (
	FamilySecrets             Family = "secrets"
	FamilyCommandInjection    Family = "command_injection"
	FamilySensitiveFileAccess Family = "sensitive_file_access"
	FamilyToolPoisoning       Family = "tool_poisoning"
	FamilyPromptInjection     Family = "prompt_injection"
	FamilyCodeInjection       Family = "code_injection"
	FamilyDeserialization     Family = "deserialization"
	FamilyPathTraversal       Family = "path_traversal"
	FamilySQLInjection        Family = "sql_injection"
	FamilySSRF                Family = "ssrf"
)

// Order is the fixed order in which detectors run against a file.
var Order = []Family{
	FamilySecrets,
	FamilyCommandInjection,
	FamilySensitiveFileAccess,
	FamilyToolPoisoning,
	FamilyPromptInjection,
	FamilyCodeInjection,
	FamilyDeserialization,
	FamilyPathTraversal,
	FamilySQLInjection,
	FamilySSRF,
}

// Pattern is one catalog entry. Expr is matched against a single source line.
// Language names the ecosystem the construct comes from; it is used for
// messaging only and never restricts which files the pattern is applied to.
type Pattern struct {
	Name        string         `yaml:"name" json:"name"`
	Language    string         `yaml:"language,omitempty" json:"language,omitempty"`
	Expr        string         `yaml:"expr" json:"expr"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Severity    model.Severity `yaml:"severity" json:"severity"`
}

// Definition describes a vulnerability family: how its findings are named,
// scored and explained, and which patterns it looks for. A definition with
// Implemented=false has no catalog yet and its detector reports nothing.
type Definition struct {
	Family      Family                  `yaml:"family" json:"family"`
	Name        string                  `yaml:"name" json:"name"`
	Type        model.VulnerabilityType `yaml:"type" json:"type"`
	Implemented bool                    `yaml:"implemented" json:"implemented"`

	IDPrefix     string  `yaml:"id_prefix,omitempty" json:"id_prefix,omitempty"`
	Confidence   float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	CWE          string  `yaml:"cwe,omitempty" json:"cwe,omitempty"`
	SkipComments bool    `yaml:"skip_comments,omitempty" json:"skip_comments,omitempty"`

	// Title and Description, when set, replace the per-pattern wording.
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Impact      string `yaml:"impact,omitempty" json:"impact,omitempty"`

	Remediation func(p Pattern) string `yaml:"-" json:"-"`

	Patterns []Pattern `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

// FindingTitle returns the finding title for a match of p.
func (d Definition) FindingTitle(p Pattern) string {
	if d.Title != "" {
		return d.Title
	}
	return p.Name + " Detected"
}

// FindingDescription returns the finding description for a match of p.
func (d Definition) FindingDescription(p Pattern) string {
	if d.Description != "" {
		return d.Description
	}
	return p.Description
}

// FindingRemediation returns remediation guidance for a match of p.
func (d Definition) FindingRemediation(p Pattern) string {
	if d.Remediation == nil {
		return ""
	}
	return d.Remediation(p)
}

// CompiledPattern couples a Pattern with its compiled matcher.
type CompiledPattern struct {
	Pattern
	Matcher *regexp.Regexp
}

// Catalog is a compiled, read-only family table.
type Catalog struct {
	Definition
	Compiled []CompiledPattern
}
