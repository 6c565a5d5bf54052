package scan

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const namespace = "mcp_sentinel"

type scannerMetrics struct {
	filesScanned     metric.Int64Counter
	filesSkipped     metric.Int64Counter
	findings         metric.Int64Counter
	suppressed       metric.Int64Counter
	detectorFailures metric.Int64Counter
	scanDuration     metric.Float64Histogram
}

func newScannerMetrics(mp metric.MeterProvider) (*scannerMetrics, error) {
	meter := mp.Meter(namespace)

	m := new(scannerMetrics)
	var err error

	if m.filesScanned, err = meter.Int64Counter(
		"files_scanned_total",
		metric.WithDescription("Total number of files read and run through every detector"),
	); err != nil {
		return nil, err
	}

	if m.filesSkipped, err = meter.Int64Counter(
		"files_skipped_total",
		metric.WithDescription("Total number of discovered files that could not be read as text"),
	); err != nil {
		return nil, err
	}

	if m.findings, err = meter.Int64Counter(
		"findings_total",
		metric.WithDescription("Total number of findings reported"),
	); err != nil {
		return nil, err
	}

	if m.suppressed, err = meter.Int64Counter(
		"findings_suppressed_total",
		metric.WithDescription("Total number of findings dropped by suppression rules or inline annotations"),
	); err != nil {
		return nil, err
	}

	if m.detectorFailures, err = meter.Int64Counter(
		"detector_failures_total",
		metric.WithDescription("Total number of detector invocations that failed or panicked"),
	); err != nil {
		return nil, err
	}

	if m.scanDuration, err = meter.Float64Histogram(
		"scan_duration_ms",
		metric.WithDescription("Wall-clock duration of a directory scan"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *scannerMetrics) record(ctx context.Context, scanned, skipped, findings, suppressed, failures int, elapsed time.Duration) {
	m.filesScanned.Add(ctx, int64(scanned))
	m.filesSkipped.Add(ctx, int64(skipped))
	m.findings.Add(ctx, int64(findings))
	m.suppressed.Add(ctx, int64(suppressed))
	m.detectorFailures.Add(ctx, int64(failures))
	m.scanDuration.Record(ctx, float64(elapsed.Microseconds())/1000)
}
