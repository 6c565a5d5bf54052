package checks

import "github.com/beejak/MCP-Sentinel/internal/model"

func pathTraversalDefinition() Definition {
	return Definition{
		Family:      FamilyPathTraversal,
		Name:        "Path traversal",
		Type:        model.TypePathTraversal,
		Implemented: true,
		IDPrefix:    "PATH-TRAV",
		Confidence:  0.75,
		CWE:         "CWE-22",
		Title:       "Path Traversal Pattern Detected",
		Description: "Potential directory traversal vulnerability detected",
		Impact:      "Attackers can access files outside intended directory",
		Remediation: func(Pattern) string {
			return "Validate and sanitize file paths, use os.path.abspath(), check path prefix"
		},
		Patterns: []Pattern{
			{Name: "Relative parent segment", Expr: `\.\./`, Severity: model.SeverityHigh},
			{Name: "Windows parent segment", Expr: `\.\.\\`, Severity: model.SeverityHigh},
			{Name: "URL-encoded parent segment", Expr: `%2e%2e/`, Severity: model.SeverityHigh},
			{Name: "Doubled parent segment", Expr: `\.\.\.\.//\.\.\.\./`, Severity: model.SeverityHigh},
			{Name: "open() with concatenated path", Expr: `open\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
		},
	}
}
