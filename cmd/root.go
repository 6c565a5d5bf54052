package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beejak/MCP-Sentinel/internal/version"
)

var (
	// ErrThresholdExceeded is returned by scan after the report was emitted
	// when findings at or above --fail-on exist.
	ErrThresholdExceeded = errors.New("severity threshold exceeded")
	// ErrInvalidTarget means the scan target is missing or not a directory.
	ErrInvalidTarget = errors.New("invalid scan target")
)

// Execute runs the CLI with args (without the program name). Interrupts
// cancel the running scan.
func Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcp-sentinel",
		Short:         "Static scanner for vulnerability patterns in AI tool-calling code",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	root.AddCommand(
		newScanCmd(),
		newDiffCmd(),
		newRulesCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), version.String()+"\n")
			return err
		},
	}
}
