package provider

import (
	"context"
)

// GeminiProvider wraps the Gemini CLI.
type GeminiProvider struct {
	BaseProvider
}

// NewGeminiProvider creates a Gemini CLI provider from config.
func NewGeminiProvider(cfg Config) *GeminiProvider {
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Gemini"
	}
	return &GeminiProvider{
		BaseProvider: NewBaseProvider(cfg),
	}
}

// Generate sends a request to the Gemini CLI and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	args := []string{"--output-format", "json"}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	args = append(args, req.Input())

	rawOutput, err := p.execute(ctx, args...)
	if err != nil {
		return "", err
	}

	resp, parseErr := ParseGeminiJSON(rawOutput)
	if parseErr != nil {
		return rawOutput, nil
	}
	return resp.Content, nil
}
