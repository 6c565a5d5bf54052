package model

import (
	"time"
)

const ScanTypeStatic = "static"

// Summary counts findings per severity tier.
type Summary struct {
	Critical    int `json:"critical"`
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Low         int `json:"low"`
	TotalIssues int `json:"total_issues"`
}

// Count returns the number of findings recorded at exactly sev.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return 0
	}
}

func (s *Summary) add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	case SeverityLow:
		s.Low++
	}
	s.TotalIssues++
}

type ScanMetadata struct {
	ScanID           string    `json:"scan_id,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	ScanDurationMS   int64     `json:"scan_duration_ms"`
	FilesScanned     int       `json:"files_scanned"`
	FilesSkipped     int       `json:"files_skipped"`
	DetectorFailures int       `json:"detector_failures"`
	Suppressed       int       `json:"findings_suppressed"`
	ToolVersion      string    `json:"tool_version,omitempty"`
}

// ScanResult accumulates the findings of one directory scan. It is created
// empty, grown with AddVulnerabilities, finalized with SetDuration and then
// handed to the caller.
type ScanResult struct {
	Target    string       `json:"target"`
	ScanTypes []string     `json:"scan_types"`
	Findings  []Finding    `json:"findings"`
	Summary   Summary      `json:"summary"`
	Metadata  ScanMetadata `json:"metadata"`
}

func NewScanResult(target string, scanTypes []string) *ScanResult {
	types := make([]string, len(scanTypes))
	copy(types, scanTypes)
	return &ScanResult{
		Target:    target,
		ScanTypes: types,
		Findings:  []Finding{},
		Metadata: ScanMetadata{
			StartedAt: time.Now().UTC(),
		},
	}
}

// AddVulnerabilities appends findings in order and keeps Summary in step.
func (r *ScanResult) AddVulnerabilities(findings []Finding) {
	for _, f := range findings {
		r.Findings = append(r.Findings, f)
		r.Summary.add(f.Severity)
	}
}

func (r *ScanResult) SetDuration(d time.Duration) {
	r.Metadata.ScanDurationMS = d.Milliseconds()
}

// HasIssuesAtLevel reports whether any finding is at or above threshold.
func (r *ScanResult) HasIssuesAtLevel(threshold Severity) bool {
	for _, f := range r.Findings {
		if f.Severity.AtLeast(threshold) {
			return true
		}
	}
	return false
}

// Highest returns the most severe finding's severity, or false when there
// are no findings.
func (r *ScanResult) Highest() (Severity, bool) {
	var top Severity
	for _, f := range r.Findings {
		top = max(top, f.Severity)
	}
	return top, top != 0
}

// RecomputeSummary recounts the summary from Findings without touching r.
func (r *ScanResult) RecomputeSummary() Summary {
	var s Summary
	for _, f := range r.Findings {
		s.add(f.Severity)
	}
	return s
}

// CountBy returns how many findings belong to the given family.
func (r *ScanResult) CountBy(t VulnerabilityType) int {
	n := 0
	for _, f := range r.Findings {
		if f.Type == t {
			n++
		}
	}
	return n
}
