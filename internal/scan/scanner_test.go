package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/beejak/MCP-Sentinel/internal/checks"
	"github.com/beejak/MCP-Sentinel/internal/detect"
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/progress"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func newScanner(t *testing.T, cfg Config, opts ...Option) *Scanner {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

type panicDetector struct{}

func (panicDetector) Name() string                  { return "panicky" }
func (panicDetector) Type() model.VulnerabilityType { return model.TypeToolPoisoning }
func (panicDetector) Implemented() bool             { return true }
func (panicDetector) Detect(string, string) ([]model.Finding, error) {
	panic("index out of range")
}

func TestScanDirectory_CommentedCallIgnoredLiveEvalReported(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"commented.py": "# os.system(cmd + user_input)\n",
		"live.py":      "import os\nresult = eval(user_input)\n",
	})

	result, err := newScanner(t, DefaultConfig()).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)

	f := result.Findings[0]
	assert.Equal(t, model.TypeCodeInjection, f.Type)
	assert.Equal(t, filepath.Join(root, "live.py"), f.Location.File)
	assert.Equal(t, 2, f.Location.Line)
	assert.Equal(t, "result = eval(user_input)", f.CodeSnippet)
	assert.Equal(t, "CODE-INJ-001", f.ID)

	assert.Equal(t, root, result.Target)
	assert.Equal(t, []string{model.ScanTypeStatic}, result.ScanTypes)
	assert.Equal(t, 1, result.Summary.Critical)
	assert.Equal(t, 1, result.Summary.TotalIssues)
	assert.Equal(t, 2, result.Metadata.FilesScanned)
	assert.Zero(t, result.Metadata.FilesSkipped)
	assert.Zero(t, result.Metadata.DetectorFailures)
	assert.NotEmpty(t, result.Metadata.ScanID)
	assert.NotEmpty(t, result.Metadata.ToolVersion)
	assert.GreaterOrEqual(t, result.Metadata.ScanDurationMS, int64(0))
}

func TestScanDirectory_MissingRootIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	result, err := newScanner(t, DefaultConfig()).ScanDirectory(context.Background(), missing)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanDirectory_DetectorPanicIsIsolated(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py": "x = eval(a)\n",
		"b.py": "y = eval(b)\n",
	})
	code, err := detect.ForFamily(checks.FamilyCodeInjection)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	s := newScanner(t, DefaultConfig(),
		WithLogger(zap.New(core)),
		WithDetectors([]detect.Detector{panicDetector{}, code}),
	)

	result, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, result.Findings, 2)
	assert.Equal(t, 2, result.Metadata.DetectorFailures)
	assert.Equal(t, 2, result.Metadata.FilesScanned)

	warnings := logs.FilterMessage("detector failed").FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "panicky", warnings[0].ContextMap()["detector"])
	assert.Contains(t, warnings[0].ContextMap()["error"], detect.ErrDetectorPanic.Error())
}

func TestScanDirectory_ParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	samples := []string{
		"eval(user_input)",
		"obj = pickle.loads(blob)",
		`p = "../" + name`,
		"cursor.execute(query + user)",
		"fetch(url + param)",
		"print('clean')",
	}
	for i := 0; i < 40; i++ {
		var b strings.Builder
		for j, line := range samples {
			if (i+j)%3 == 0 {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		files[filepath.Join("pkg", string(rune('a'+i%5)), "file"+strings.Repeat("x", i%7)+string(rune('0'+i%10))+".py")] = b.String()
	}
	writeTree(t, root, files)

	seqCfg := DefaultConfig()
	seqCfg.Workers = 1
	parCfg := DefaultConfig()
	parCfg.Workers = 8

	seq, err := newScanner(t, seqCfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	par, err := newScanner(t, parCfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	require.NotEmpty(t, seq.Findings)
	assert.Equal(t, seq.Findings, par.Findings)
	assert.Equal(t, seq.Summary, par.Summary)
	assert.Equal(t, seq.RecomputeSummary(), seq.Summary)
	assert.Equal(t, par.RecomputeSummary(), par.Summary)
	assert.Equal(t, seq.Summary.TotalIssues, len(seq.Findings))
}

func TestScanDirectory_SkipsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.py":      "eval(x)\n",
		"binary.dat": "eval(x)\x00\x01",
		"latin1.txt": "caf\xe9 eval(x)\n",
		"huge.js":    strings.Repeat("// padding\n", 200) + "eval(x)\n",
	})
	cfg := DefaultConfig()
	cfg.MaxFileBytes = 1024

	core, logs := observer.New(zapcore.DebugLevel)
	result, err := newScanner(t, cfg, WithLogger(zap.New(core))).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.FilesScanned)
	assert.Equal(t, 3, result.Metadata.FilesSkipped)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, filepath.Join(root, "ok.py"), result.Findings[0].Location.File)

	skipped := logs.FilterMessage("skipping file").All()
	assert.Len(t, skipped, 3)
	for _, entry := range skipped {
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
	}
}

func TestScanDirectory_ExcludesAndIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.py":          "eval(a)\n",
		"tests/test_app.py":   "eval(b)\n",
		"examples/demo.py":    "eval(c)\n",
		"examples/keep.py":    "eval(d)\n",
		".sentinelignore":     "examples/*.py\n!examples/keep.py\n",
		"node_modules/x/y.js": "eval(e)\n",
	})
	cfg := DefaultConfig()
	cfg.ExcludePatterns = []string{"tests/"}

	result, err := newScanner(t, cfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	var got []string
	for _, f := range result.Findings {
		rel, err := filepath.Rel(root, f.Location.File)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"examples/keep.py", "src/app.py"}, got)
}

func TestScanDirectory_IgnoreFileDisabled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":            "eval(a)\n",
		".sentinelignore": "*.py\n",
	})
	cfg := DefaultConfig()
	cfg.IgnoreFile = ""

	result, err := newScanner(t, cfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)
}

func TestScanDirectory_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "eval(a)\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newScanner(t, DefaultConfig()).ScanDirectory(ctx, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestScanDirectory_EmptyDirectory(t *testing.T) {
	result, err := newScanner(t, DefaultConfig()).ScanDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.NotNil(t, result.Findings)
	assert.Zero(t, result.Summary.TotalIssues)
	assert.False(t, result.HasIssuesAtLevel(model.SeverityLow))
}

func TestScanner_ReusableAcrossScans(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "eval(a)\nexec(b)\n"})
	s := newScanner(t, DefaultConfig())

	first, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	second, err := s.ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Findings, second.Findings)
	assert.NotEqual(t, first.Metadata.ScanID, second.Metadata.ScanID)
}

func TestScanDirectory_EmitsProgress(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":   "eval(a)\n",
		"b.bin2": "\x00",
	})

	var mu sync.Mutex
	counts := map[progress.EventType]int{}
	sink := progress.SinkFunc(func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[e.Type]++
	})

	_, err := newScanner(t, DefaultConfig(), WithProgress(sink)).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[progress.EventScanStarted])
	assert.Equal(t, 1, counts[progress.EventFilesDiscovered])
	assert.Equal(t, 1, counts[progress.EventFileScanned])
	assert.Equal(t, 1, counts[progress.EventFileSkipped])
	assert.Equal(t, 1, counts[progress.EventScanFinished])
}

func TestScanDirectory_Telemetry(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":   "eval(a)\nexec(b)\n",
		"b.py":   "x = 1\n",
		"c.blob": "\x00\x00",
	})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	_, err := newScanner(t, DefaultConfig(),
		WithTracerProvider(tp),
		WithMeterProvider(mp),
	).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scanner.scan_directory", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, root, attrs["root"].AsString())
	assert.Equal(t, int64(3), attrs["files"].AsInt64())
	assert.Equal(t, int64(2), attrs["findings"].AsInt64())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(2), sumCounter(t, rm, "files_scanned_total"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "files_skipped_total"))
	assert.Equal(t, int64(2), sumCounter(t, rm, "findings_total"))
	assert.True(t, hasMetric(rm, "scan_duration_ms"))
}

func TestScanDirectory_Suppressions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":                        "x = eval(a)  # mcp-sentinel:ignore code_injection\ny = eval(b)\n",
		"db.py":                       "db.execute(q + user)\n",
		".sentinel-suppressions.yaml": "suppressions:\n  - type: sql_injection\n    files: db.py\n    reason: legacy query builder\n",
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	result, err := newScanner(t, DefaultConfig(), WithMeterProvider(mp)).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, filepath.Join(root, "a.py"), result.Findings[0].Location.File)
	assert.Equal(t, 2, result.Findings[0].Location.Line)
	assert.Equal(t, 2, result.Metadata.Suppressed)
	assert.Equal(t, 1, result.Summary.TotalIssues)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(2), sumCounter(t, rm, "findings_suppressed_total"))
}

func TestScanDirectory_InvalidSuppressionsFileIsFatal(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":                        "eval(a)\n",
		".sentinel-suppressions.yaml": "suppressions:\n  - type: code_injection\n",
	})

	_, err := newScanner(t, DefaultConfig()).ScanDirectory(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason")
}

func TestScanDirectory_SuppressionsFileDisabled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"db.py":                       "db.execute(q + user)\n",
		".sentinel-suppressions.yaml": "suppressions:\n  - type: sql_injection\n    reason: legacy\n",
	})

	cfg := DefaultConfig()
	cfg.SuppressionsFile = ""
	result, err := newScanner(t, cfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)
	assert.Zero(t, result.Metadata.Suppressed)
}

func TestScanDirectory_OnlyFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":              "eval(a)\n",
		"tools/b.py":        "eval(b)\n",
		"tools/c.py":        "eval(c)\n",
		"node_modules/d.js": "eval(d)\n",
	})

	cfg := DefaultConfig()
	cfg.OnlyFiles = []string{"tools/b.py", "./a.py", "node_modules/d.js", "gone.py"}
	result, err := newScanner(t, cfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	var files []string
	for _, f := range result.Findings {
		rel, err := filepath.Rel(root, f.Location.File)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"a.py", "tools/b.py"}, files)
	assert.Equal(t, 2, result.Metadata.FilesScanned)

	cfg.OnlyFiles = []string{}
	result, err = newScanner(t, cfg).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Zero(t, result.Metadata.FilesScanned)
}

func TestScanDirectory_FailedScanMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, err := newScanner(t, DefaultConfig(), WithTracerProvider(tp)).
		ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
	assert.NotEmpty(t, spans[0].Events())
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := newScanner(t, Config{ExcludePatterns: []string{"*.md"}})
	cfg := s.Config()
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, DefaultMaxFileBytes, cfg.MaxFileBytes)
	assert.Equal(t, []string{"*.md"}, cfg.ExcludePatterns)
	assert.Len(t, s.Detectors(), len(checks.Order))
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return 0
}

func hasMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}
