package llmgate

// Result is the outcome of a non-streaming generation.
//
// Provider and Model describe the configured primary step (Model honours the
// caller's override) even when a fallback produced Content; FallbackUsed is
// always false.
type Result struct {
	Content      string `json:"content"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	FallbackUsed bool   `json:"fallback_used"`
}
