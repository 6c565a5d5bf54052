package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beejak/MCP-Sentinel/internal/comment"
	"github.com/beejak/MCP-Sentinel/internal/config"
	"github.com/beejak/MCP-Sentinel/internal/diff"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/report"
)

type diffFlags struct {
	output  string
	failOn  string
	redact  bool
	verbose bool
}

func newDiffCmd() *cobra.Command {
	var opts diffFlags
	cmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two JSON scan reports and list new and fixed findings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", config.OutputTerminal, "Output format: terminal|json|markdown")
	f.StringVar(&opts.failOn, "fail-on", "", "Exit non-zero when new findings at or above this severity exist")
	f.BoolVar(&opts.redact, "redact", false, "Mask secrets in reported code snippets")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Also list unchanged findings")
	return cmd
}

func runDiff(cmd *cobra.Command, baselinePath, currentPath string, opts diffFlags) error {
	var threshold model.Severity
	if opts.failOn != "" {
		sev, err := model.ParseSeverity(opts.failOn)
		if err != nil {
			return err
		}
		threshold = sev
	}

	baseline, err := diff.LoadReport(baselinePath)
	if err != nil {
		return err
	}
	current, err := diff.LoadReport(currentPath)
	if err != nil {
		return err
	}
	dr := diff.Compare(baseline, current)

	renderOpts := report.Options{Redact: opts.redact, Verbose: opts.verbose}
	switch strings.ToLower(opts.output) {
	case config.OutputJSON:
		data, err := report.GenerateDiffJSON(dr, renderOpts)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return fmt.Errorf("write diff report: %w", err)
		}
	case config.OutputMarkdown:
		if _, err := io.WriteString(cmd.OutOrStdout(), comment.Generate(current, &dr)); err != nil {
			return fmt.Errorf("write diff report: %w", err)
		}
	case config.OutputTerminal:
		renderOpts.Color = colorEnabled(cmd.OutOrStdout())
		if err := report.RenderDiff(cmd.OutOrStdout(), dr, renderOpts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q (want terminal|json|markdown)", opts.output)
	}

	if threshold != 0 && dr.HasNewAtLevel(threshold) {
		return fmt.Errorf("%w: new findings at or above %s", ErrThresholdExceeded, threshold)
	}
	return nil
}
