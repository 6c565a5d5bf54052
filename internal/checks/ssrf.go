package checks

import "github.com/beejak/MCP-Sentinel/internal/model"

// SSRF findings are reported as data exfiltration; there is no dedicated
// request-forgery type.
func ssrfDefinition() Definition {
	return Definition{
		Family:      FamilySSRF,
		Name:        "Server-side request forgery",
		Type:        model.TypeDataExfiltration,
		Implemented: true,
		IDPrefix:    "SSRF",
		Confidence:  0.70,
		CWE:         "CWE-918",
		Title:       "SSRF Pattern Detected",
		Description: "Potential Server-Side Request Forgery detected",
		Impact:      "Attackers can make server requests to internal/external resources",
		Remediation: func(Pattern) string {
			return "Validate URLs against allowlist, block internal IPs, use dedicated HTTP client with restrictions"
		},
		Patterns: []Pattern{
			{Name: "requests call with concatenated URL", Language: "Python", Expr: `requests\.(get|post|put|delete)\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
			{Name: "urlopen with concatenated URL", Language: "Python", Expr: `urllib\.request\.urlopen\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
			{Name: "fetch with concatenated URL", Language: "JavaScript/TypeScript", Expr: `fetch\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
			{Name: "axios call with concatenated URL", Language: "JavaScript/TypeScript", Expr: `axios\.(get|post)\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
			{Name: "http call with concatenated URL", Language: "JavaScript/TypeScript", Expr: `http\.(get|request)\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityHigh},
		},
	}
}
