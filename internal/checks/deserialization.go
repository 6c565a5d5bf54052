package checks

import (
	"fmt"

	"github.com/beejak/MCP-Sentinel/internal/model"
)

func deserializationDefinition() Definition {
	return Definition{
		Family:      FamilyDeserialization,
		Name:        "Insecure deserialization",
		Type:        model.TypeUnsafeDeserialization,
		Implemented: true,
		IDPrefix:    "DESER",
		Confidence:  0.88,
		CWE:         "CWE-502",
		Impact: "Attackers can craft malicious serialized objects that execute arbitrary code " +
			"when deserialized, leading to full system compromise.",
		Remediation: func(p Pattern) string {
			return fmt.Sprintf("For %s: Use safe alternatives like JSON, or implement strict "+
				"type checking and validation before deserialization. "+
				"Consider using allowlists for allowed classes.", p.Language)
		},
		Patterns: []Pattern{
			{
				Name:        "Python pickle.loads()",
				Language:    "Python",
				Expr:        `pickle\.loads?\s*\(`,
				Description: "Unsafe deserialization using pickle detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python yaml.load() without SafeLoader",
				Language:    "Python",
				Expr:        `yaml\.load\s*\([^,)]*\)`,
				Description: "Unsafe YAML deserialization without SafeLoader detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Python marshal.loads()",
				Language:    "Python",
				Expr:        `marshal\.loads?\s*\(`,
				Description: "Unsafe deserialization using marshal detected",
				Severity:    model.SeverityHigh,
			},
			{
				Name:        "Python shelve usage",
				Language:    "Python",
				Expr:        `shelve\.open\s*\(`,
				Description: "Shelve uses pickle internally, potential unsafe deserialization",
				Severity:    model.SeverityMedium,
			},
			{
				Name:        "Java ObjectInputStream.readObject()",
				Language:    "Java",
				Expr:        `ObjectInputStream.*\.readObject\s*\(`,
				Description: "Unsafe Java object deserialization detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "PHP unserialize()",
				Language:    "PHP",
				Expr:        `\bunserialize\s*\(`,
				Description: "Unsafe PHP deserialization detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Ruby Marshal.load()",
				Language:    "Ruby",
				Expr:        `Marshal\.load\s*\(`,
				Description: "Unsafe Ruby deserialization using Marshal detected",
				Severity:    model.SeverityCritical,
			},
			{
				Name:        "Node.js node-serialize",
				Language:    "JavaScript/TypeScript",
				Expr:        `serialize\.unserialize\s*\(`,
				Description: "Unsafe deserialization using node-serialize detected",
				Severity:    model.SeverityCritical,
			},
		},
	}
}
