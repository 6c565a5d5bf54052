package report

import (
	"time"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

const leakedKey = "sk-abcdefghijklmnopqrstuvwx1234"

func sampleResult() *model.ScanResult {
	r := model.NewScanResult("/repo", []string{model.ScanTypeStatic})
	r.AddVulnerabilities([]model.Finding{
		model.NewFinding(model.FindingSpec{
			ID:          "PATH-TRAV-001",
			Type:        model.TypePathTraversal,
			Severity:    model.SeverityHigh,
			Title:       "Path Traversal Pattern Detected",
			Description: "Relative parent directory reference detected",
			Location:    model.Location{File: "/repo/files/io.py", Line: 3, Column: 8},
			Remediation: "Validate and normalize paths before use",
			CodeSnippet: `p = "../" + name`,
			Confidence:  0.75,
			Evidence:    model.Evidence{"pattern": "Relative parent segment", "cwe": "CWE-22"},
		}),
		model.NewFinding(model.FindingSpec{
			ID:          "CODE-INJ-001",
			Type:        model.TypeCodeInjection,
			Severity:    model.SeverityCritical,
			Title:       "eval() usage Detected",
			Description: "Dynamic code evaluation using eval() detected",
			Location:    model.Location{File: "/repo/app.py", Line: 12, Column: 1},
			Remediation: "Never use eval() usage with untrusted input. Instead:\n- Implement input validation and sanitization",
			CodeSnippet: `token = eval("` + leakedKey + `")`,
			Confidence:  0.90,
			Evidence: model.Evidence{
				"pattern":  "eval() usage",
				"language": "Python/JavaScript/Ruby/PHP",
				"cwe":      "CWE-94: Code Injection",
			},
		}),
		model.NewFinding(model.FindingSpec{
			ID:          "SSRF-001",
			Type:        model.TypeDataExfiltration,
			Severity:    model.SeverityMedium,
			Title:       "SSRF Pattern Detected",
			Description: "HTTP request with a concatenated URL detected",
			Location:    model.Location{File: "/repo/net.js", Line: 4, Column: 11},
			CodeSnippet: "fetch(base + path)",
			Confidence:  0.70,
			Evidence:    model.Evidence{"pattern": "fetch with concatenated URL"},
		}),
		model.NewFinding(model.FindingSpec{
			ID:          "PATH-TRAV-002",
			Type:        model.TypePathTraversal,
			Severity:    model.SeverityHigh,
			Title:       "Path Traversal Pattern Detected",
			Description: "Relative parent directory reference detected",
			Location:    model.Location{File: "/repo/files/io.py", Line: 9},
			CodeSnippet: `q = "../" + other`,
			Confidence:  0.75,
			Evidence:    model.Evidence{"pattern": "Relative parent segment", "cwe": "CWE-22"},
		}),
	})
	r.Metadata.FilesScanned = 3
	r.Metadata.FilesSkipped = 1
	r.SetDuration(15 * time.Millisecond)
	return r
}
