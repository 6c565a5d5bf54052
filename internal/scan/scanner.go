// Package scan walks a directory and runs every detector over each file.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/beejak/MCP-Sentinel/internal/detect"
	"github.com/beejak/MCP-Sentinel/internal/intake"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/progress"
	"github.com/beejak/MCP-Sentinel/internal/suppress"
	"github.com/beejak/MCP-Sentinel/internal/version"
	"github.com/beejak/MCP-Sentinel/internal/worker"
)

const (
	tracerName = "github.com/beejak/MCP-Sentinel/internal/scan"

	DefaultMaxFileBytes int64 = 2 * 1024 * 1024
)

// Config is read once by New and never modified by the scanner.
type Config struct {
	// ExcludePatterns use the ignore-file glob syntax.
	ExcludePatterns []string
	// Workers bounds how many files are scanned at once. Zero or less means
	// runtime.GOMAXPROCS(0); 1 scans strictly sequentially.
	Workers int
	// IgnoreFile is resolved against the scan root. Empty disables it.
	IgnoreFile string
	// SuppressionsFile is resolved against the scan root. Empty disables it;
	// inline mcp-sentinel:ignore annotations always apply.
	SuppressionsFile string
	// MaxFileBytes skips larger files. Zero means DefaultMaxFileBytes and a
	// negative value disables the limit.
	MaxFileBytes int64
	// OnlyFiles, when non-nil, limits the scan to these root-relative
	// slash-separated paths. Discovery filters still apply, and an empty
	// non-nil slice scans nothing.
	OnlyFiles []string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		IgnoreFile:       intake.DefaultIgnoreFile,
		SuppressionsFile: suppress.DefaultFile,
		MaxFileBytes:     DefaultMaxFileBytes,
	}
}

type Option func(*Scanner)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDetectors replaces the default detector set. Detectors run in slice
// order.
func WithDetectors(detectors []detect.Detector) Option {
	return func(s *Scanner) {
		s.detectors = detectors
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scanner) {
		if tp != nil {
			s.tracerProvider = tp
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Scanner) {
		if mp != nil {
			s.meterProvider = mp
		}
	}
}

func WithProgress(sink progress.Sink) Option {
	return func(s *Scanner) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// Scanner holds only configuration and collaborators. It keeps no state
// between scans, so one value can run many scans, concurrently if needed.
type Scanner struct {
	cfg       Config
	detectors []detect.Detector

	logger         *zap.Logger
	sink           progress.Sink
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	tracer  trace.Tracer
	metrics *scannerMetrics
}

// New builds a Scanner. Without WithDetectors it uses detect.Default, so a
// catalog that fails to compile is reported here.
func New(cfg Config, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		cfg:            cfg,
		logger:         zap.NewNop(),
		sink:           progress.NoopSink{},
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cfg.Workers < 1 {
		s.cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if s.cfg.MaxFileBytes == 0 {
		s.cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	s.cfg.ExcludePatterns = append([]string(nil), cfg.ExcludePatterns...)
	if cfg.OnlyFiles != nil {
		s.cfg.OnlyFiles = append([]string{}, cfg.OnlyFiles...)
	}

	if s.detectors == nil {
		detectors, err := detect.Default()
		if err != nil {
			return nil, fmt.Errorf("build detectors: %w", err)
		}
		s.detectors = detectors
	}
	s.detectors = append([]detect.Detector(nil), s.detectors...)

	metrics, err := newScannerMetrics(s.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("create scanner metrics: %w", err)
	}
	s.metrics = metrics
	s.tracer = s.tracerProvider.Tracer(tracerName)
	return s, nil
}

// Config returns the effective configuration after defaults were applied.
func (s *Scanner) Config() Config {
	cfg := s.cfg
	cfg.ExcludePatterns = append([]string(nil), s.cfg.ExcludePatterns...)
	return cfg
}

// Detectors returns the detectors in run order.
func (s *Scanner) Detectors() []detect.Detector {
	return append([]detect.Detector(nil), s.detectors...)
}

type fileOutcome struct {
	findings   []model.Finding
	skipped    bool
	failures   int
	suppressed int
}

// ScanDirectory scans every file under root. root is expected to be an
// existing directory; checking that is the caller's job.
//
// Only a discovery failure or cancellation of ctx is returned as an error,
// and then no result is returned. Unreadable files are skipped and a failing
// detector only loses its own findings for that file; both are counted in
// the result metadata.
func (s *Scanner) ScanDirectory(ctx context.Context, root string) (*model.ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "scanner.scan_directory",
		trace.WithAttributes(attribute.String("root", root)))
	defer span.End()

	start := time.Now()
	result := model.NewScanResult(root, []string{model.ScanTypeStatic})
	result.Metadata.ScanID = uuid.NewString()
	result.Metadata.ToolVersion = version.Version

	s.logger.Info("scan started",
		zap.String("scan_id", result.Metadata.ScanID),
		zap.String("root", root),
		zap.Int("workers", s.cfg.Workers),
		zap.Int("detectors", len(s.detectors)),
	)
	s.sink.Emit(progress.Event{Type: progress.EventScanStarted, ScanID: result.Metadata.ScanID})

	fail := func(err error) (*model.ScanResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.sink.Emit(progress.Event{
			Type:       progress.EventScanFinished,
			ScanID:     result.Metadata.ScanID,
			Error:      err.Error(),
			DurationMS: time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	ignore, err := s.loadIgnore(root)
	if err != nil {
		return fail(fmt.Errorf("scan %s: %w", root, err))
	}

	rules, err := s.loadSuppressions(root, start)
	if err != nil {
		return fail(fmt.Errorf("scan %s: %w", root, err))
	}

	files, err := intake.Discover(root, s.cfg.ExcludePatterns, ignore)
	if err != nil {
		return fail(fmt.Errorf("scan %s: discover files: %w", root, err))
	}
	if s.cfg.OnlyFiles != nil {
		files = restrictTo(root, files, s.cfg.OnlyFiles)
	}
	span.SetAttributes(attribute.Int("files", len(files)))
	s.logger.Debug("files discovered", zap.String("root", root), zap.Int("files", len(files)))
	s.sink.Emit(progress.Event{Type: progress.EventFilesDiscovered, FileCount: len(files)})

	outcomes, err := worker.Map(ctx, files, s.cfg.Workers, func(ctx context.Context, _ int, path string) (fileOutcome, error) {
		out := s.scanFile(ctx, path)
		if len(out.findings) > 0 {
			var n int
			out.findings, n = rules.Filter(out.findings, root)
			out.suppressed += n
		}
		return out, nil
	})
	if err != nil {
		return fail(fmt.Errorf("scan %s: %w", root, err))
	}

	for _, out := range outcomes {
		if out.skipped {
			result.Metadata.FilesSkipped++
			continue
		}
		result.Metadata.FilesScanned++
		result.Metadata.DetectorFailures += out.failures
		result.Metadata.Suppressed += out.suppressed
		result.AddVulnerabilities(out.findings)
	}

	elapsed := time.Since(start)
	result.SetDuration(elapsed)

	meta := result.Metadata
	s.metrics.record(ctx, meta.FilesScanned, meta.FilesSkipped, result.Summary.TotalIssues, meta.Suppressed, meta.DetectorFailures, elapsed)
	span.SetAttributes(
		attribute.String("scan_id", meta.ScanID),
		attribute.Int("files_scanned", meta.FilesScanned),
		attribute.Int("files_skipped", meta.FilesSkipped),
		attribute.Int("findings", result.Summary.TotalIssues),
		attribute.Int("findings_suppressed", meta.Suppressed),
		attribute.Int("detector_failures", meta.DetectorFailures),
	)

	s.logger.Info("scan complete",
		zap.String("scan_id", meta.ScanID),
		zap.Int("files_scanned", meta.FilesScanned),
		zap.Int("files_skipped", meta.FilesSkipped),
		zap.Int("findings", result.Summary.TotalIssues),
		zap.Int("findings_suppressed", meta.Suppressed),
		zap.Int("detector_failures", meta.DetectorFailures),
		zap.Int64("duration_ms", meta.ScanDurationMS),
	)
	s.sink.Emit(progress.Event{
		Type:         progress.EventScanFinished,
		ScanID:       meta.ScanID,
		FileCount:    meta.FilesScanned,
		FindingCount: result.Summary.TotalIssues,
		DurationMS:   meta.ScanDurationMS,
	})
	return result, nil
}

func (s *Scanner) loadIgnore(root string) (*intake.IgnoreRules, error) {
	if s.cfg.IgnoreFile == "" {
		return nil, nil
	}
	path := s.cfg.IgnoreFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rules, err := intake.LoadIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	if rules != nil {
		s.logger.Debug("ignore file loaded", zap.String("path", path), zap.Strings("patterns", rules.Patterns()))
	}
	return rules, nil
}

// restrictTo keeps the discovered files named in only, preserving order.
func restrictTo(root string, files, only []string) []string {
	keep := make(map[string]struct{}, len(only))
	for _, rel := range only {
		keep[filepath.ToSlash(filepath.Clean(rel))] = struct{}{}
	}
	out := files[:0]
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			continue
		}
		if _, ok := keep[filepath.ToSlash(rel)]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *Scanner) loadSuppressions(root string, now time.Time) (*suppress.Set, error) {
	if s.cfg.SuppressionsFile == "" {
		return nil, nil
	}
	path := s.cfg.SuppressionsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rules, err := suppress.Load(path)
	if err != nil {
		return nil, err
	}
	set, err := suppress.NewSet(rules, now)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		s.logger.Debug("suppressions loaded",
			zap.String("path", path),
			zap.Int("rules", len(rules)),
			zap.Int("active", set.Len()),
		)
	}
	return set, nil
}

// scanFile never fails: read errors skip the file and detector errors are
// isolated to the detector that raised them.
func (s *Scanner) scanFile(ctx context.Context, path string) fileOutcome {
	content, err := intake.ReadFile(path, s.cfg.MaxFileBytes)
	if err != nil {
		s.logger.Debug("skipping file", zap.String("file", path), zap.Error(err))
		s.sink.Emit(progress.Event{Type: progress.EventFileSkipped, File: path, Error: err.Error()})
		return fileOutcome{skipped: true}
	}

	var out fileOutcome
	for _, d := range s.detectors {
		findings, err := detect.Run(d, content, path)
		if err != nil {
			out.failures++
			s.logger.Warn("detector failed",
				zap.String("detector", d.Name()),
				zap.String("file", path),
				zap.Error(err),
			)
			s.sink.Emit(progress.Event{
				Type:     progress.EventDetectorFailed,
				File:     path,
				Detector: d.Name(),
				Error:    err.Error(),
			})
			trace.SpanFromContext(ctx).AddEvent("detector_failed", trace.WithAttributes(
				attribute.String("detector", d.Name()),
				attribute.String("file", path),
			))
			continue
		}
		out.findings = append(out.findings, findings...)
	}

	if inline := suppress.ParseInline(content); len(inline) > 0 {
		out.findings, out.suppressed = suppress.ApplyInline(out.findings, inline)
	}

	s.sink.Emit(progress.Event{Type: progress.EventFileScanned, File: path, FindingCount: len(out.findings)})
	return out
}
