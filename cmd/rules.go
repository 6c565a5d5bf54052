package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/beejak/MCP-Sentinel/internal/checks"
)

type ruleView struct {
	Family      string        `yaml:"family"`
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	Implemented bool          `yaml:"implemented"`
	IDPrefix    string        `yaml:"id_prefix,omitempty"`
	Confidence  float64       `yaml:"confidence,omitempty"`
	CWE         string        `yaml:"cwe,omitempty"`
	Patterns    []patternView `yaml:"patterns,omitempty"`
}

type patternView struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language,omitempty"`
	Severity string `yaml:"severity"`
	Expr     string `yaml:"expr"`
}

func newRulesCmd() *cobra.Command {
	var format string
	var showPatterns bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List detector families and their patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views := ruleViews()
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "table", "":
				return printRulesTable(cmd.OutOrStdout(), views, showPatterns)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(views); err != nil {
					return fmt.Errorf("encode rules: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown --format %q (want table|yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|yaml")
	cmd.Flags().BoolVar(&showPatterns, "patterns", false, "List every pattern under its family (table format)")
	return cmd
}

func ruleViews() []ruleView {
	defs := checks.Definitions()
	views := make([]ruleView, 0, len(defs))
	for _, def := range defs {
		v := ruleView{
			Family:      string(def.Family),
			Name:        def.Name,
			Type:        string(def.Type),
			Implemented: def.Implemented,
			IDPrefix:    def.IDPrefix,
			Confidence:  def.Confidence,
			CWE:         def.CWE,
		}
		for _, p := range def.Patterns {
			v.Patterns = append(v.Patterns, patternView{
				Name:     p.Name,
				Language: p.Language,
				Severity: p.Severity.String(),
				Expr:     p.Expr,
			})
		}
		views = append(views, v)
	}
	return views
}

func printRulesTable(w io.Writer, views []ruleView, showPatterns bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-16s %-9s %s\n", "FAMILY", "STATUS", "PATTERNS", "NAME")
	for _, v := range views {
		status := "implemented"
		if !v.Implemented {
			status = "not implemented"
		}
		fmt.Fprintf(&b, "%-24s %-16s %-9d %s\n", v.Family, status, len(v.Patterns), v.Name)
		if showPatterns {
			for _, p := range v.Patterns {
				fmt.Fprintf(&b, "    %-9s %s\n", p.Severity, p.Name)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
