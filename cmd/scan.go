package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beejak/MCP-Sentinel/internal/comment"
	"github.com/beejak/MCP-Sentinel/internal/config"
	"github.com/beejak/MCP-Sentinel/internal/git"
	"github.com/beejak/MCP-Sentinel/internal/intake"
	"github.com/beejak/MCP-Sentinel/internal/logging"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/progress"
	"github.com/beejak/MCP-Sentinel/internal/report"
	"github.com/beejak/MCP-Sentinel/internal/scan"
	"github.com/beejak/MCP-Sentinel/internal/suppress"
	"github.com/beejak/MCP-Sentinel/internal/telemetry"
	"github.com/beejak/MCP-Sentinel/internal/tui"
)

type scanFlags struct {
	configFile   string
	progress     bool
	verbose      bool
	changedSince string
	staged       bool
	progressFmt  string
}

func newScanCmd() *cobra.Command {
	var opts scanFlags
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory for vulnerability patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", config.OutputTerminal, "Output format: terminal|json|sarif|markdown")
	f.String("output-file", "", "Write the report to this file instead of stdout")
	f.String("fail-on", "", "Exit non-zero when findings at or above this severity exist: low|medium|high|critical")
	f.StringSlice("exclude", nil, "Skip paths matching this glob (repeatable)")
	f.Int("workers", 0, "Files scanned concurrently (0 = GOMAXPROCS)")
	f.String("log-level", logging.DefaultLevel, "Log level: debug|info|warn|error")
	f.Bool("redact", false, "Mask secrets in reported code snippets")
	f.String("ignore-file", intake.DefaultIgnoreFile, "Ignore file looked up at the scan root (empty disables)")
	f.String("suppressions-file", suppress.DefaultFile, "Suppression rules looked up at the scan root (empty disables)")
	f.Int64("max-file-bytes", scan.DefaultMaxFileBytes, "Skip files larger than this many bytes (-1 disables)")
	f.StringVar(&opts.configFile, "config", "", "Config file (default ./"+config.LocalFileName+")")
	f.BoolVar(&opts.progress, "progress", false, "Print progress events to stderr")
	f.StringVar(&opts.progressFmt, "progress-format", "plain", "Progress event format: plain|json|tui")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Detailed report and debug logging")
	f.StringVar(&opts.changedSince, "changed-since", "", "Only scan files changed since this git ref")
	f.BoolVar(&opts.staged, "staged", false, "Only scan files staged in the git index")
	cmd.MarkFlagsMutuallyExclusive("changed-since", "staged")
	return cmd
}

func runScan(cmd *cobra.Command, target string, opts scanFlags) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: opts.configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	threshold, hasThreshold, err := cfg.FailOnSeverity()
	if err != nil {
		return err
	}
	root, err := resolveTarget(target)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if opts.verbose && !cmd.Flags().Changed("log-level") {
		level = "debug"
	}
	logger, err := buildLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.Setup(cmd.Context(), telemetry.Config{Endpoint: cfg.OTLPEndpoint, Insecure: cfg.OTLPInsecure})
	if err != nil {
		return err
	}
	defer flushTelemetry(tel, logger)

	scanOpts := []scan.Option{
		scan.WithLogger(logger),
		scan.WithTracerProvider(tel.TracerProvider),
		scan.WithMeterProvider(tel.MeterProvider),
	}
	var events chan progress.Event
	if opts.progress {
		format := strings.ToLower(strings.TrimSpace(opts.progressFmt))
		if format == "tui" && isTerminal(cmd.ErrOrStderr()) {
			events = make(chan progress.Event, 256)
			scanOpts = append(scanOpts, scan.WithProgress(progress.NewChannelSink(cmd.Context(), events)))
		} else {
			if format == "tui" {
				format = "plain"
			}
			sink, err := progressSink(cmd.ErrOrStderr(), format)
			if err != nil {
				return err
			}
			scanOpts = append(scanOpts, scan.WithProgress(sink))
		}
	}
	scanCfg := cfg.ScanConfig()
	if opts.changedSince != "" || opts.staged {
		only, err := changedFiles(cmd.Context(), root, opts)
		if err != nil {
			return err
		}
		logger.Debug("scan limited to changed files", zap.Int("files", len(only)))
		scanCfg.OnlyFiles = only
	}
	scanner, err := scan.New(scanCfg, scanOpts...)
	if err != nil {
		return err
	}

	var result *model.ScanResult
	if events != nil {
		result, err = scanWithView(cmd.Context(), scanner, root, events, cmd.ErrOrStderr())
	} else {
		result, err = scanner.ScanDirectory(cmd.Context(), root)
	}
	if err != nil {
		return err
	}

	renderOpts := report.Options{Redact: cfg.Redact, Verbose: opts.verbose}
	if err := emitReport(cmd, result, cfg, renderOpts); err != nil {
		return err
	}

	if hasThreshold && result.HasIssuesAtLevel(threshold) {
		top, _ := result.Highest()
		return fmt.Errorf("%w: highest severity %s is at or above %s", ErrThresholdExceeded, top, threshold)
	}
	return nil
}

func progressSink(w io.Writer, format string) (progress.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "plain":
		return progress.NewPlainSink(w), nil
	case "json":
		return progress.NewJSONSink(w), nil
	default:
		return nil, fmt.Errorf("unknown progress format %q (want plain|json|tui)", format)
	}
}

func flushTelemetry(tel *telemetry.Providers, logger *zap.Logger) {
	if !tel.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logger.Warn("telemetry export failed", zap.Error(err))
	}
}

// scanWithView scans in the background while the live view renders on w.
// events is closed once the scan has returned.
func scanWithView(ctx context.Context, scanner *scan.Scanner, root string, events chan progress.Event, w io.Writer) (*model.ScanResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		result  *model.ScanResult
		scanErr error
	)
	go func() {
		defer close(events)
		result, scanErr = scanner.ScanDirectory(ctx, root)
	}()

	viewErr := tui.Run(ctx, tui.Options{Events: events, Output: w})
	if viewErr != nil {
		cancel()
	}
	for range events {
	}

	if scanErr != nil {
		return nil, scanErr
	}
	if viewErr != nil {
		return nil, viewErr
	}
	return result, nil
}

// changedFiles lists the files under root that git reports as changed,
// relative to root.
func changedFiles(ctx context.Context, root string, opts scanFlags) ([]string, error) {
	repo, err := git.RepoRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	var files []string
	if opts.staged {
		files, err = git.StagedFiles(ctx, repo)
	} else {
		files, err = git.ChangedFiles(ctx, repo, opts.changedSince)
	}
	if err != nil {
		return nil, err
	}
	return git.FilesUnder(repo, root, files)
}

func resolveTarget(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrInvalidTarget, target, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w %s: not a directory", ErrInvalidTarget, target)
	}
	return filepath.Clean(target), nil
}

func emitReport(cmd *cobra.Command, result *model.ScanResult, cfg config.Config, opts report.Options) error {
	stdout := cmd.OutOrStdout()

	var data []byte
	var err error
	switch cfg.Output {
	case config.OutputJSON:
		data, err = report.GenerateJSON(result, opts)
	case config.OutputSARIF:
		data, err = report.GenerateSARIF(result, opts)
	case config.OutputMarkdown:
		data = []byte(comment.Generate(result, nil))
	default:
		if cfg.OutputFile == "" {
			opts.Color = colorEnabled(stdout)
			if err := report.RenderTerminal(stdout, result, opts); err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			return nil
		}
		var buf bytes.Buffer
		err = report.RenderTerminal(&buf, result, opts)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := report.WriteFile(cfg.OutputFile, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", cfg.OutputFile)
		return nil
	}
	if _, err := stdout.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// colorEnabled reports whether w is an interactive terminal and NO_COLOR is
// unset.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// buildLogger logs to the process stderr with the full zap config, and to
// any other writer (tests, wrappers) with a plain console core.
func buildLogger(w io.Writer, level string) (*zap.Logger, error) {
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		return logging.New(level)
	}
	return logging.NewWriter(w, level)
}
