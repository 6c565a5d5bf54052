package report

import (
	"github.com/beejak/MCP-Sentinel/internal/model"
	"github.com/beejak/MCP-Sentinel/internal/redact"
)

// redactResult returns a copy of in with secrets masked in every field that
// carries scanned text. in is left untouched.
func redactResult(in *model.ScanResult) *model.ScanResult {
	out := *in
	out.ScanTypes = append([]string(nil), in.ScanTypes...)
	out.Findings = redactFindings(in.Findings)
	return &out
}

func redactFindings(in []model.Finding) []model.Finding {
	out := make([]model.Finding, 0, len(in))
	for _, f := range in {
		f = f.Clone()
		f.CodeSnippet = redact.Text(f.CodeSnippet)
		f.Title = redact.Text(f.Title)
		f.Description = redact.Text(f.Description)
		for k, v := range f.Evidence {
			if s, ok := v.(string); ok {
				f.Evidence[k] = redact.Text(s)
			}
		}
		out = append(out, f)
	}
	return out
}
