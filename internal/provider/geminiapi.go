package provider

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAPIProvider talks to the Gemini API directly instead of shelling
// out to a CLI. Useful on hosts without the CLI tools installed.
type GeminiAPIProvider struct {
	name         string
	displayName  string
	apiKey       string
	defaultModel string
	models       []string
	timeout      time.Duration
}

// NewGeminiAPIProvider creates a Gemini API provider from config. The API
// key comes from config or the GEMINI_API_KEY environment variable.
func NewGeminiAPIProvider(cfg Config) *GeminiAPIProvider {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = "Gemini API"
	}

	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-3-flash-preview"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &GeminiAPIProvider{
		name:         cfg.Name,
		displayName:  displayName,
		apiKey:       apiKey,
		defaultModel: model,
		models:       cfg.Models,
		timeout:      timeout,
	}
}

// Name returns the provider identifier.
func (p *GeminiAPIProvider) Name() string { return p.name }

// DisplayName returns the human-friendly name.
func (p *GeminiAPIProvider) DisplayName() string { return p.displayName }

// Models returns available models.
func (p *GeminiAPIProvider) Models() []string { return p.models }

// DefaultModel returns the default model.
func (p *GeminiAPIProvider) DefaultModel() string { return p.defaultModel }

// Available reports whether an API key is configured.
func (p *GeminiAPIProvider) Available() bool {
	return p.apiKey != ""
}

// Generate sends a request to the Gemini API and returns the response text.
func (p *GeminiAPIProvider) Generate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", &CallError{
			Provider: p.name,
			Category: CategoryAuth,
			Message:  "GEMINI_API_KEY not set",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", NewCallError(p.name, "failed to create Gemini client", err)
	}
	defer client.Close()

	modelName := req.Model
	if modelName == "" {
		modelName = p.defaultModel
	}

	model := client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", NewCallError(p.name, "generation request failed", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &CallError{
			Provider: p.name,
			Category: CategoryOther,
			Message:  "empty response from model",
		}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
