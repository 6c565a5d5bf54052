package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beejak/MCP-Sentinel/internal/diff"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/sanitize"
)

var (
	styleNew   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleFixed = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func redactDiff(dr diff.DiffReport) diff.DiffReport {
	dr.New = redactFindings(dr.New)
	dr.Fixed = redactFindings(dr.Fixed)
	dr.Unchanged = redactFindings(dr.Unchanged)
	return dr
}

// RenderDiff writes the new and fixed findings of a baseline comparison.
// Unchanged findings are only listed when opts.Verbose is set.
func RenderDiff(w io.Writer, dr diff.DiffReport, opts Options) error {
	if opts.Redact {
		dr = redactDiff(dr)
	}
	p := painter{color: opts.Color}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", p.paint(styleHeader, fmt.Sprintf("baseline comparison: %d new, %d fixed, %d unchanged",
		dr.Summary.NewCount, dr.Summary.FixedCount, dr.Summary.UnchangedCount)))

	section := func(title string, style lipgloss.Style, findings []model.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s\n", p.paint(style, title))
		for _, f := range findings {
			fmt.Fprintf(&b, "  %s  %s  %s\n", p.severity(f.Severity), sanitize.Path(f.Title),
				p.paint(styleLocation, sanitize.Path(f.Location.String())))
			if snippet := sanitize.Snippet(f.CodeSnippet); snippet != "" {
				fmt.Fprintf(&b, "    %s\n", p.paint(styleSnippet, strings.TrimSpace(snippet)))
			}
		}
		b.WriteString("\n")
	}
	section("New", styleNew, dr.New)
	section("Fixed", styleFixed, dr.Fixed)
	if opts.Verbose {
		section("Unchanged", styleLow, dr.Unchanged)
	}
	if dr.Summary.NewCount == 0 {
		b.WriteString("No new findings.\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write diff report: %w", err)
	}
	return nil
}

// GenerateDiffJSON serializes the comparison, indented, with a trailing newline.
func GenerateDiffJSON(dr diff.DiffReport, opts Options) ([]byte, error) {
	if opts.Redact {
		dr = redactDiff(dr)
	}
	b, err := json.MarshalIndent(dr, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal diff report: %w", err)
	}
	return append(b, '\n'), nil
}
