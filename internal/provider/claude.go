package provider

import (
	"context"
)

// ClaudeProvider wraps the Claude CLI.
type ClaudeProvider struct {
	BaseProvider
}

// NewClaudeProvider creates a Claude provider from config.
func NewClaudeProvider(cfg Config) *ClaudeProvider {
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Claude"
	}
	return &ClaudeProvider{
		BaseProvider: NewBaseProvider(cfg),
	}
}

// Generate sends a request to the Claude CLI and returns the response.
func (p *ClaudeProvider) Generate(ctx context.Context, req Request) (string, error) {
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

	resp, parseErr := ParseClaudeJSON(rawOutput)
	if parseErr != nil {
		// Fall back to raw output if parsing fails.
		return rawOutput, nil
	}
	return resp.Content, nil
}
