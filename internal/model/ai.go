package model

// AIConfig is the persisted provider selection. The API key lives in the
// credential store only.
type AIConfig struct {
	Provider string `json:"provider" db:"provider"`
	Model    string `json:"model" db:"model"`
}

// AIStatus is what a UI needs to decide whether to offer AI features.
type AIStatus struct {
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
}

type AIPromptSuggestion struct {
	Prompt       string `json:"prompt" db:"prompt"`
	GeneratedSQL string `json:"generatedSql" db:"generated_sql"`
}
