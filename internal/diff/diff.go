// Package diff compares two scan reports so a CI run can fail only on
// findings a change introduced.
package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// DiffSummary holds aggregate counts for a baseline comparison.
type DiffSummary struct {
	NewCount       int `json:"new_count"`
	FixedCount     int `json:"fixed_count"`
	UnchangedCount int `json:"unchanged_count"`
}

// DiffReport is the result of comparing a current scan against a baseline.
type DiffReport struct {
	New       []model.Finding `json:"new"`
	Fixed     []model.Finding `json:"fixed"`
	Unchanged []model.Finding `json:"unchanged"`
	Summary   DiffSummary     `json:"summary"`
}

// HasNewAtLevel reports whether any new finding is at or above threshold.
func (d DiffReport) HasNewAtLevel(threshold model.Severity) bool {
	for _, f := range d.New {
		if f.Severity.AtLeast(threshold) {
			return true
		}
	}
	return false
}

// LoadReport reads a JSON report written by `scan --output json`.
func LoadReport(path string) (*model.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var result model.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &result, nil
}

// Compare produces a DiffReport identifying new, fixed, and unchanged findings
// relative to a baseline scan. Finding IDs restart per file and detector, so
// findings are keyed by type, pattern, file relative to the scan target and
// snippet instead. Line numbers are left out so code moving within a file
// does not count as a change. Repeated keys pair up one-to-one.
func Compare(baseline, current *model.ScanResult) DiffReport {
	baseKeys := groupByKey(baseline)
	currKeys := groupByKey(current)

	newFindings := []model.Finding{}
	fixed := []model.Finding{}
	unchanged := []model.Finding{}

	for key, curr := range currKeys {
		base := baseKeys[key]
		n := min(len(base), len(curr))
		unchanged = append(unchanged, curr[:n]...)
		newFindings = append(newFindings, curr[n:]...)
	}
	for key, base := range baseKeys {
		n := min(len(base), len(currKeys[key]))
		fixed = append(fixed, base[n:]...)
	}

	sortFindings(newFindings)
	sortFindings(fixed)
	sortFindings(unchanged)

	return DiffReport{
		New:       newFindings,
		Fixed:     fixed,
		Unchanged: unchanged,
		Summary: DiffSummary{
			NewCount:       len(newFindings),
			FixedCount:     len(fixed),
			UnchangedCount: len(unchanged),
		},
	}
}

func groupByKey(result *model.ScanResult) map[string][]model.Finding {
	groups := map[string][]model.Finding{}
	if result == nil {
		return groups
	}
	for _, f := range result.Findings {
		key := findingKey(result.Target, f)
		groups[key] = append(groups[key], f)
	}
	for _, fs := range groups {
		sort.SliceStable(fs, func(i, j int) bool {
			return fs[i].Location.Line < fs[j].Location.Line
		})
	}
	return groups
}

func findingKey(target string, f model.Finding) string {
	snippet := strings.Join(strings.Fields(f.CodeSnippet), " ")
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return string(f.Type) + "|" +
		strings.ToLower(strings.TrimSpace(f.EvidenceString("pattern"))) + "|" +
		relativeFile(target, f.Location.File) + "|" + snippet
}

// relativeFile lets a baseline taken in one checkout match a scan of
// another checkout of the same tree.
func relativeFile(target, file string) string {
	if target != "" {
		if rel, err := filepath.Rel(target, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = rel
		}
	}
	return filepath.ToSlash(file)
}

func sortFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		return a.Title < b.Title
	})
}
