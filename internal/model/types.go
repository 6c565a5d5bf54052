package model

import (
	"fmt"
	"maps"
	"strings"
)

// Severity is the ordered risk tier of a finding: Low < Medium < High < Critical.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// AllSeverities lists every tier from most to least severe.
var AllSeverities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// AtLeast reports whether s is at or above threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s >= threshold
}

// ParseSeverity accepts the lower-, upper- or mixed-case tier name.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q (want low|medium|high|critical)", raw)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// VulnerabilityType is the closed set of vulnerability families a finding can belong to.
type VulnerabilityType string

const (
	TypeCodeInjection         VulnerabilityType = "code_injection"
	TypeUnsafeDeserialization VulnerabilityType = "unsafe_deserialization"
	TypePathTraversal         VulnerabilityType = "path_traversal"
	TypeSQLInjection          VulnerabilityType = "sql_injection"
	TypeDataExfiltration      VulnerabilityType = "data_exfiltration"
	TypeCommandInjection      VulnerabilityType = "command_injection"
	TypeSensitiveFileAccess   VulnerabilityType = "sensitive_file_access"
	TypeToolPoisoning         VulnerabilityType = "tool_poisoning"
	TypePromptInjection       VulnerabilityType = "prompt_injection"
	TypeSecretExposure        VulnerabilityType = "secret_exposure"
)

var knownTypes = map[VulnerabilityType]string{
	TypeCodeInjection:         "Code Injection",
	TypeUnsafeDeserialization: "Unsafe Deserialization",
	TypePathTraversal:         "Path Traversal",
	TypeSQLInjection:          "SQL Injection",
	TypeDataExfiltration:      "Data Exfiltration",
	TypeCommandInjection:      "Command Injection",
	TypeSensitiveFileAccess:   "Sensitive File Access",
	TypeToolPoisoning:         "Tool Poisoning",
	TypePromptInjection:       "Prompt Injection",
	TypeSecretExposure:        "Secret Exposure",
}

func (t VulnerabilityType) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Label returns the human-readable family name, e.g. "Code Injection".
func (t VulnerabilityType) Label() string {
	if label, ok := knownTypes[t]; ok {
		return label
	}
	return string(t)
}

func (t *VulnerabilityType) UnmarshalText(text []byte) error {
	v := VulnerabilityType(strings.TrimSpace(string(text)))
	if !v.Valid() {
		return fmt.Errorf("unknown vulnerability type %q", string(text))
	}
	*t = v
	return nil
}

type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

func (l Location) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Evidence carries loosely typed audit details keyed by name (language, pattern, cwe, ...).
type Evidence map[string]any

// Finding is one reported instance of a suspicious pattern. Build it with
// NewFinding. Copies of a Finding share its Evidence map; use Clone before
// changing evidence on a copy.
type Finding struct {
	ID          string            `json:"id"`
	Type        VulnerabilityType `json:"type"`
	Severity    Severity          `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    Location          `json:"location"`
	Impact      string            `json:"impact,omitempty"`
	Remediation string            `json:"remediation,omitempty"`
	CodeSnippet string            `json:"code_snippet,omitempty"`
	Confidence  float64           `json:"confidence"`
	Evidence    Evidence          `json:"evidence,omitempty"`
}

// FindingSpec names every field a detector may set when constructing a Finding.
type FindingSpec struct {
	ID          string
	Type        VulnerabilityType
	Severity    Severity
	Title       string
	Description string
	Location    Location
	Impact      string
	Remediation string
	CodeSnippet string
	Confidence  float64
	Evidence    Evidence
}

func NewFinding(spec FindingSpec) Finding {
	confidence := spec.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	var evidence Evidence
	if len(spec.Evidence) > 0 {
		evidence = maps.Clone(spec.Evidence)
	}
	return Finding{
		ID:          spec.ID,
		Type:        spec.Type,
		Severity:    spec.Severity,
		Title:       spec.Title,
		Description: spec.Description,
		Location:    spec.Location,
		Impact:      spec.Impact,
		Remediation: spec.Remediation,
		CodeSnippet: spec.CodeSnippet,
		Confidence:  confidence,
		Evidence:    evidence,
	}
}

// Clone returns a copy of f that owns its own Evidence map.
func (f Finding) Clone() Finding {
	if f.Evidence != nil {
		f.Evidence = maps.Clone(f.Evidence)
	}
	return f
}

// EvidenceValue returns the evidence entry for key, if present.
func (f Finding) EvidenceValue(key string) (any, bool) {
	v, ok := f.Evidence[key]
	return v, ok
}

// EvidenceString returns the evidence entry for key formatted as text, or "".
func (f Finding) EvidenceString(key string) string {
	v, ok := f.Evidence[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
