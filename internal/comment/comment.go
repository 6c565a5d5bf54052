// Package comment renders scan results as markdown for pull request comments.
package comment

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beejak/MCP-Sentinel/internal/diff"
	"github.com/beejak/MCP-Sentinel/internal/model"
)

const maxCell = 100

// Generate renders result as a markdown comment. With a non-nil diffReport
// the comment leads with what changed against the baseline; otherwise every
// finding in result is listed.
func Generate(result *model.ScanResult, diffReport *diff.DiffReport) string {
	if result == nil {
		result = model.NewScanResult("", nil)
	}
	var sb strings.Builder
	sb.WriteString("## MCP-Sentinel Scan\n\n")
	if diffReport != nil {
		writeDiff(&sb, result, *diffReport)
	} else {
		writeFindings(&sb, result)
	}
	return sb.String()
}

func writeFindings(sb *strings.Builder, result *model.ScanResult) {
	summary := []string{fmt.Sprintf("**%d finding(s)**", len(result.Findings))}
	summary = appendSuppressed(summary, result)
	sb.WriteString(strings.Join(summary, " | ") + "\n\n")

	if len(result.Findings) == 0 {
		sb.WriteString("No vulnerability patterns detected.\n")
		return
	}
	findingTable(result.Target, result.Findings, true).write(sb)
}

func writeDiff(sb *strings.Builder, result *model.ScanResult, dr diff.DiffReport) {
	var summary []string
	if n := dr.Summary.NewCount; n > 0 {
		summary = append(summary, fmt.Sprintf("**%d new finding(s)**", n))
	} else {
		summary = append(summary, "**0 new findings**")
	}
	if n := dr.Summary.FixedCount; n > 0 {
		summary = append(summary, fmt.Sprintf("%d fixed", n))
	}
	if n := dr.Summary.UnchangedCount; n > 0 {
		summary = append(summary, fmt.Sprintf("%d unchanged", n))
	}
	summary = appendSuppressed(summary, result)
	sb.WriteString(strings.Join(summary, " | ") + "\n\n")

	if len(dr.New) > 0 {
		sb.WriteString("### New Findings\n\n")
		findingTable(result.Target, dr.New, true).write(sb)
		sb.WriteString("\n")
	}
	if len(dr.Fixed) > 0 {
		sb.WriteString("### Fixed (since baseline)\n\n")
		t := table{header: []string{"Title", "Type"}}
		for _, f := range dr.Fixed {
			t.add(cell(f.Title), string(f.Type))
		}
		t.write(sb)
		sb.WriteString("\n")
	}
	if len(dr.Unchanged) > 0 {
		fmt.Fprintf(sb, "<details><summary>%d unchanged finding(s)</summary>\n\n", len(dr.Unchanged))
		findingTable(result.Target, dr.Unchanged, false).write(sb)
		sb.WriteString("\n</details>\n")
	}
}

func appendSuppressed(summary []string, result *model.ScanResult) []string {
	if n := result.Metadata.Suppressed; n > 0 {
		summary = append(summary, fmt.Sprintf("%d suppressed", n))
	}
	return summary
}

func findingTable(target string, findings []model.Finding, withLocation bool) table {
	t := table{header: []string{"Severity", "Title", "Type"}}
	if withLocation {
		t.header = append(t.header, "Location")
	}
	for _, f := range findings {
		row := []string{titleCase(f.Severity.String()), cell(f.Title), string(f.Type)}
		if withLocation {
			row = append(row, location(target, f))
		}
		t.add(row...)
	}
	return t
}

type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t table) write(sb *strings.Builder) {
	writeRow(sb, t.header)
	rule := make([]string, len(t.header))
	for i, h := range t.header {
		rule[i] = strings.Repeat("-", len(h)+2)
	}
	sb.WriteString("|" + strings.Join(rule, "|") + "|\n")
	for _, r := range t.rows {
		writeRow(sb, r)
	}
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

// location is file:line, relative to the scan target when the file is under it.
func location(target string, f model.Finding) string {
	file := f.Location.File
	if target != "" {
		if rel, err := filepath.Rel(target, file); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			file = rel
		}
	}
	return cell(fmt.Sprintf("`%s:%d`", filepath.ToSlash(file), f.Location.Line))
}

// cell makes s safe inside a single table cell.
func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if len(s) > maxCell {
		s = s[:maxCell] + "..."
	}
	return s
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
