// Package report renders a finished ScanResult for people and for tools.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/sanitize"
)

var errNilResult = errors.New("nil scan result")

// Options controls rendering. Color is decided by the caller, usually from
// whether stdout is a terminal.
type Options struct {
	Color   bool
	Redact  bool
	Verbose bool
}

const maxRemediationLen = 200

var (
	styleCritical    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
	styleHigh        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleMedium      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleLow         = lipgloss.NewStyle().Faint(true)
	styleLocation    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleSnippet     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	styleRemediation = lipgloss.NewStyle().Faint(true)
	styleHeader      = lipgloss.NewStyle().Bold(true)
)

type painter struct {
	color bool
}

func (p painter) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p painter) severity(sev model.Severity) string {
	label := strings.ToUpper(sev.String())
	switch sev {
	case model.SeverityCritical:
		return p.paint(styleCritical, label)
	case model.SeverityHigh:
		return p.paint(styleHigh, label)
	case model.SeverityMedium:
		return p.paint(styleMedium, label)
	case model.SeverityLow:
		return p.paint(styleLow, label)
	default:
		return label
	}
}

// RenderTerminal writes a severity-sorted, human readable report to w.
func RenderTerminal(w io.Writer, result *model.ScanResult, opts Options) error {
	if result == nil {
		return errNilResult
	}
	if opts.Redact {
		result = redactResult(result)
	}
	p := painter{color: opts.Color}

	var b strings.Builder
	b.WriteString(p.paint(styleHeader, summaryLine(result)))
	b.WriteString("\n")
	md := result.Metadata
	fmt.Fprintf(&b, "files scanned: %d, skipped: %d, detector failures: %d, duration: %dms",
		md.FilesScanned, md.FilesSkipped, md.DetectorFailures, md.ScanDurationMS)
	if md.Suppressed > 0 {
		fmt.Fprintf(&b, ", suppressed: %d", md.Suppressed)
	}
	b.WriteString("\n\n")

	if len(result.Findings) == 0 {
		b.WriteString("No findings.\n")
	}
	for _, f := range sortedFindings(result.Findings) {
		fmt.Fprintf(&b, "  %s  %s  [%s]\n", p.severity(f.Severity), sanitize.Path(f.Title), f.ID)
		fmt.Fprintf(&b, "    %s\n", p.paint(styleLocation, sanitize.Path(f.Location.String())))
		if snippet := sanitize.Snippet(f.CodeSnippet); snippet != "" {
			fmt.Fprintf(&b, "    %s\n", p.paint(styleSnippet, strings.TrimSpace(snippet)))
		}
		if opts.Verbose {
			if f.Description != "" {
				fmt.Fprintf(&b, "    %s\n", f.Description)
			}
			if cwe := f.EvidenceString("cwe"); cwe != "" {
				fmt.Fprintf(&b, "    %s (confidence %.2f)\n", cwe, f.Confidence)
			}
		}
		if rem := remediationText(f.Remediation, opts.Verbose); rem != "" {
			fmt.Fprintf(&b, "    %s\n", p.paint(styleRemediation, "→ "+rem))
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write terminal report: %w", err)
	}
	return nil
}

func summaryLine(result *model.ScanResult) string {
	var parts []string
	for _, sev := range model.AllSeverities {
		if c := result.Summary.Count(sev); c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, sev))
		}
	}
	line := fmt.Sprintf("mcp-sentinel scan of %s: %d finding(s)", sanitize.Path(result.Target), result.Summary.TotalIssues)
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	return line
}

// sortedFindings orders by severity, most severe first, keeping scan order
// within a tier.
func sortedFindings(findings []model.Finding) []model.Finding {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})
	return sorted
}

func remediationText(rem string, verbose bool) string {
	rem = strings.TrimSpace(rem)
	if rem == "" {
		return ""
	}
	if verbose {
		return strings.ReplaceAll(rem, "\n", "\n      ")
	}
	if first, _, ok := strings.Cut(rem, "\n"); ok {
		rem = strings.TrimSpace(first)
	}
	if len(rem) > maxRemediationLen {
		cut := maxRemediationLen
		for cut > 0 && !utf8.RuneStart(rem[cut]) {
			cut--
		}
		rem = rem[:cut] + "..."
	}
	return rem
}
