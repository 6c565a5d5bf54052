package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

func TestGenerateJSON_RoundTrip(t *testing.T) {
	in := sampleResult()
	b, err := GenerateJSON(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1])

	var out model.ScanResult
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.Target, out.Target)
	assert.Equal(t, in.Summary, out.Summary)
	assert.Equal(t, in.Metadata.ScanDurationMS, out.Metadata.ScanDurationMS)
	require.Len(t, out.Findings, len(in.Findings))
	for i := range in.Findings {
		assert.Equal(t, in.Findings[i].Severity, out.Findings[i].Severity)
		assert.Equal(t, in.Findings[i].Type, out.Findings[i].Type)
		assert.Equal(t, in.Findings[i].Location, out.Findings[i].Location)
	}
}

func TestGenerateJSON_WireNames(t *testing.T) {
	b, err := GenerateJSON(sampleResult(), Options{})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	findings := raw["findings"].([]any)
	first := findings[1].(map[string]any)
	assert.Equal(t, "critical", first["severity"])
	assert.Equal(t, "code_injection", first["type"])
	loc := first["location"].(map[string]any)
	assert.EqualValues(t, 12, loc["line"])

	summary := raw["summary"].(map[string]any)
	assert.EqualValues(t, 4, summary["total_issues"])
	assert.EqualValues(t, 2, summary["high"])
}

func TestGenerateJSON_Redacts(t *testing.T) {
	b, err := GenerateJSON(sampleResult(), Options{Redact: true})
	require.NoError(t, err)
	assert.NotContains(t, string(b), leakedKey)

	b, err = GenerateJSON(sampleResult(), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(b), leakedKey)
}

func TestGenerateJSON_Nil(t *testing.T) {
	_, err := GenerateJSON(nil, Options{})
	assert.Error(t, err)
}
