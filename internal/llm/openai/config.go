package openai

// Config holds the settings for an OpenAI-compatible chat completion endpoint.
type Config struct {
	// APIKey is sent as a bearer token.
	APIKey string
	// Model is the chat model name, e.g. "gpt-4o-mini".
	Model string
	// BaseURL overrides the API root, e.g. "http://localhost:11434/v1" for
	// Ollama. Empty means the public OpenAI endpoint.
	BaseURL string
	// SystemPrompt is sent before the review prompt.
	SystemPrompt string
	// Temperature is passed through when non-zero.
	Temperature float32
}

// DefaultConfig provides defaults for a code review model.
func DefaultConfig() Config {
	return Config{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a meticulous senior software engineer who reviews code and answers only in JSON.",
		Temperature:  0.2,
	}
}
