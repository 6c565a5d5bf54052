package report

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

func TestRenderTerminal_NoFindings(t *testing.T) {
	r := model.NewScanResult("/empty", []string{model.ScanTypeStatic})
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, r, Options{}))
	out := buf.String()
	assert.Contains(t, out, "mcp-sentinel scan of /empty: 0 finding(s)")
	assert.Contains(t, out, "No findings.")
}

func TestRenderTerminal_SuppressedCount(t *testing.T) {
	r := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, r, Options{}))
	assert.NotContains(t, buf.String(), "suppressed:")

	r.Metadata.Suppressed = 2
	buf.Reset()
	require.NoError(t, RenderTerminal(&buf, r, Options{}))
	assert.Contains(t, buf.String(), "duration: 15ms, suppressed: 2\n")
}

func TestRenderTerminal_SortedBySeverity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, sampleResult(), Options{}))
	out := buf.String()

	assert.Contains(t, out, "4 finding(s) (1 critical, 2 high, 1 medium)")
	assert.Contains(t, out, "files scanned: 3, skipped: 1, detector failures: 0, duration: 15ms")

	critical := strings.Index(out, "CRITICAL  eval() usage Detected  [CODE-INJ-001]")
	high := strings.Index(out, "HIGH  Path Traversal Pattern Detected  [PATH-TRAV-001]")
	secondHigh := strings.Index(out, "[PATH-TRAV-002]")
	medium := strings.Index(out, "MEDIUM  SSRF Pattern Detected")
	require.NotEqual(t, -1, critical)
	require.NotEqual(t, -1, high)
	require.NotEqual(t, -1, medium)
	assert.Less(t, critical, high)
	assert.Less(t, high, secondHigh)
	assert.Less(t, secondHigh, medium)

	assert.Contains(t, out, "/repo/app.py:12:1")
	assert.Contains(t, out, "/repo/files/io.py:9\n")
	assert.Contains(t, out, "→ Never use eval() usage with untrusted input. Instead:")
	assert.NotContains(t, out, "- Implement input validation")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry ANSI styling")
}

func TestRenderTerminal_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, sampleResult(), Options{Verbose: true}))
	out := buf.String()
	assert.Contains(t, out, "Dynamic code evaluation using eval() detected")
	assert.Contains(t, out, "CWE-94: Code Injection (confidence 0.90)")
	assert.Contains(t, out, "- Implement input validation and sanitization")
}

func TestRenderTerminal_Redacts(t *testing.T) {
	r := sampleResult()
	var plain, redacted bytes.Buffer
	require.NoError(t, RenderTerminal(&plain, r, Options{}))
	require.NoError(t, RenderTerminal(&redacted, r, Options{Redact: true}))

	assert.Contains(t, plain.String(), leakedKey)
	assert.NotContains(t, redacted.String(), leakedKey)
	assert.Contains(t, redacted.String(), "[REDACTED_API_KEY]")
	assert.Contains(t, r.Findings[1].CodeSnippet, leakedKey, "redaction must not modify the result")
}

func TestRenderTerminal_StripsControlSequences(t *testing.T) {
	r := model.NewScanResult("/repo", nil)
	r.AddVulnerabilities([]model.Finding{model.NewFinding(model.FindingSpec{
		ID:          "CODE-INJ-001",
		Type:        model.TypeCodeInjection,
		Severity:    model.SeverityLow,
		Title:       "eval() usage Detected",
		Location:    model.Location{File: "/repo/evil\x1b]0;owned\x07.py", Line: 1},
		CodeSnippet: "eval(x) \x1b[2J",
	})})
	var buf bytes.Buffer
	require.NoError(t, RenderTerminal(&buf, r, Options{}))
	assert.NotContains(t, buf.String(), "\x1b")
	assert.NotContains(t, buf.String(), "\x07")
}

func TestRenderTerminal_NilResult(t *testing.T) {
	assert.Error(t, RenderTerminal(&bytes.Buffer{}, nil, Options{}))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestRenderTerminal_WriteError(t *testing.T) {
	err := RenderTerminal(failingWriter{}, sampleResult(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRemediationText(t *testing.T) {
	assert.Empty(t, remediationText("  ", false))
	assert.Equal(t, "first", remediationText("first\nsecond", false))
	long := strings.Repeat("a", maxRemediationLen+10)
	assert.Equal(t, strings.Repeat("a", maxRemediationLen)+"...", remediationText(long, false))
	accented := strings.Repeat("a", maxRemediationLen-1) + "été"
	got := remediationText(accented, false)
	assert.True(t, utf8.ValidString(got), got)
	assert.Equal(t, strings.Repeat("a", maxRemediationLen-1)+"...", got)
	assert.Equal(t, "first\n      second", remediationText("first\nsecond", true))
}
