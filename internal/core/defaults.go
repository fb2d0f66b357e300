package core

// DefaultCommandForProvider returns the default command for a provider.
var DefaultCommandForProvider = map[string]string{
	"claude":     "claude",
	"gemini":     "gemini",
	"codex":      "codex",
	"gemini-api": "",
	"mock":       "",
}

// DefaultArgsForProvider returns the default arguments for a provider.
var DefaultArgsForProvider = map[string][]string{
	"claude":     {"--print"},
	"gemini":     {},
	"codex":      {},
	"gemini-api": {},
	"mock":       {},
}

// DefaultModelsForProvider returns the list of supported models for a provider.
var DefaultModelsForProvider = map[string][]string{
	"claude":     {"opus-4.5", "sonnet-4.5", "haiku-4.5"},
	"gemini":     {"gemini-3-pro-preview", "gemini-3-flash-preview"},
	"codex":      {"gpt-5.2-codex", "gpt-5.2"},
	"gemini-api": {"gemini-3-pro-preview", "gemini-3-flash-preview"},
	"mock":       {"mock-v1", "mock-v2"},
}

// DefaultModelForProvider returns the default model for a provider.
var DefaultModelForProvider = map[string]string{
	"claude":     "sonnet-4.5",
	"gemini":     "gemini-3-flash-preview",
	"codex":      "gpt-5.2-codex",
	"gemini-api": "gemini-3-flash-preview",
	"mock":       "mock-v1",
}
