package checks

import "github.com/beejak/MCP-Sentinel/internal/model"

func sqlInjectionDefinition() Definition {
	return Definition{
		Family:      FamilySQLInjection,
		Name:        "SQL injection",
		Type:        model.TypeSQLInjection,
		Implemented: true,
		IDPrefix:    "SQL-INJ",
		Confidence:  0.85,
		CWE:         "CWE-89",
		Title:       "SQL Injection Pattern Detected",
		Description: "Potential SQL injection via string concatenation",
		Impact:      "Database compromise, data theft, authentication bypass",
		Remediation: func(Pattern) string {
			return "Use parameterized queries or prepared statements"
		},
		Patterns: []Pattern{
			{Name: "execute() with concatenation", Expr: `execute\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityCritical},
			{Name: "execute() with % formatting", Expr: `execute\s*\([^)]*%[^)]*\)`, Severity: model.SeverityCritical},
			{Name: "execute() with f-string", Language: "Python", Expr: `execute\s*\([^)]*f["'][^"']*\{[^}]*\}`, Severity: model.SeverityCritical},
			{Name: "raw() with concatenation", Expr: `\.raw\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityCritical},
			{Name: "query() with concatenation", Expr: `query\s*\([^)]*\+[^)]*\)`, Severity: model.SeverityCritical},
		},
	}
}
