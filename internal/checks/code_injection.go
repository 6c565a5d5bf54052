package checks

import (
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

// codeInjectionDefinition covers dynamic evaluation of code (CWE-94/95).
// A single eval() entry serves every ecosystem that spells it the same way.
func codeInjectionDefinition() Definition {
	return Definition{
		Family:       FamilyCodeInjection,
		Name:         "Code injection",
		Type:         model.TypeCodeInjection,
		Implemented:  true,
		IDPrefix:     "CODE-INJ",
		Confidence:   0.90,
		CWE:          "CWE-94: Code Injection",
		SkipComments: true,
		Impact: "Attackers can execute arbitrary code on the server, leading to complete " +
			"system compromise, data theft, or service disruption.",
		Remediation: func(p Pattern) string {
			return fmt.Sprintf("Never use %s with untrusted input. Instead:\n"+
				"- Use safe alternatives (e.g., ast.literal_eval() for Python)\n"+
				"- Implement input validation and sanitization\n"+
				"- Use a whitelist of allowed operations\n"+
				"- Consider sandboxed execution environments\n"+
				"- Review security guidelines for %s", p.Name, p.Language)
		},
		Patterns: []Pattern{
			{
				Name:        "eval() usage",
				Language:    "Python/JavaScript/Ruby/PHP",
				Expr:        `\beval\s*\(`,
				Description: "Dynamic code evaluation using eval() detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python exec() usage",
				Language:    "Python",
				Expr:        `\bexec\s*\(`,
				Description: "Dynamic code execution using exec() detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python compile() usage",
				Language:    "Python",
				Expr:        `\bcompile\s*\(`,
				Description: "Dynamic code compilation using compile() detected",
				Severity:    model.SeverityHigh,
			},
			{
				Name:        "Python __import__() usage",
				Language:    "Python",
				Expr:        `__import__\s*\(`,
				Description: "Dynamic module import using __import__() detected",
				Severity:    model.SeverityHigh,
			},
			{
				Name:        "Python eval via getattr",
				Language:    "Python",
				Expr:        `getattr\s*\([^)]*,\s*['"]eval['"]\s*\)`,
				Description: "Obfuscated eval() usage via getattr detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "JavaScript Function() constructor",
				Language:    "JavaScript/TypeScript",
				Expr:        `\bnew\s+Function\s*\(`,
				Description: "Dynamic function creation using Function() constructor detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "JavaScript Function() without new",
				Language:    "JavaScript/TypeScript",
				Expr:        `\bFunction\s*\([^)]*\)\s*\(`,
				Description: "Dynamic function creation using Function() detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Node.js vm.runInNewContext",
				Language:    "JavaScript/TypeScript",
				Expr:        `vm\.runInNewContext\s*\(`,
				Description: "Code execution in new context using vm.runInNewContext detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Node.js vm.runInThisContext",
				Language:    "JavaScript/TypeScript",
				Expr:        `vm\.runInThisContext\s*\(`,
				Description: "Code execution in current context using vm.runInThisContext detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Node.js vm.runInContext",
				Language:    "JavaScript/TypeScript",
				Expr:        `vm\.runInContext\s*\(`,
				Description: "Code execution using vm.runInContext detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Ruby instance_eval usage",
				Language:    "Ruby",
				Expr:        `\.instance_eval\s*\(`,
				Description: "Dynamic code evaluation using instance_eval detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Ruby class_eval usage",
				Language:    "Ruby",
				Expr:        `\.class_eval\s*\(`,
				Description: "Dynamic code evaluation using class_eval detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Ruby module_eval usage",
				Language:    "Ruby",
				Expr:        `\.module_eval\s*\(`,
				Description: "Dynamic code evaluation using module_eval detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python execfile() usage",
				Language:    "Python",
				Expr:        `\bexecfile\s*\(`,
				Description: "Dynamic file execution using execfile() detected (Python 2)",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python InteractiveInterpreter",
				Language:    "Python",
				Expr:        `code\.InteractiveInterpreter`,
				Description: "Interactive code interpreter usage detected",
				Severity:    model.SeverityHigh,
			},
			{
				Name:        "PHP assert() with code string",
				Language:    "PHP",
				Expr:        `\bassert\s*\(\s*['"]`,
				Description: "Code execution using assert() with string detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "PHP preg_replace /e modifier",
				Language:    "PHP",
				Expr:        `preg_replace\s*\([^)]*['"]/.*e.*['"]`,
				Description: "Code execution using preg_replace with /e modifier detected",
				Severity:    model.SeverityCritical,
			},
		},
	}
}
