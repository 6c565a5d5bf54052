package checks

import "github.com/beejak/MCP-Sentinel/internal/model"

// Families below are registered so they run in order and show up in
// listings, but they carry no catalog yet.

func secretsDefinition() Definition {
	return Definition{Family: FamilySecrets, Name: "Secret exposure", Type: model.TypeSecretExposure}
}

func commandInjectionDefinition() Definition {
	return Definition{Family: FamilyCommandInjection, Name: "Command injection", Type: model.TypeCommandInjection}
}

func sensitiveFileAccessDefinition() Definition {
	return Definition{Family: FamilySensitiveFileAccess, Name: "Sensitive file access", Type: model.TypeSensitiveFileAccess}
}

func toolPoisoningDefinition() Definition {
	return Definition{Family: FamilyToolPoisoning, Name: "Tool poisoning", Type: model.TypeToolPoisoning}
}

func promptInjectionDefinition() Definition {
	return Definition{Family: FamilyPromptInjection, Name: "Prompt injection", Type: model.TypePromptInjection}
}
