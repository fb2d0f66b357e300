package provider

import (
	"context"
)

// CodexProvider wraps the OpenAI Codex CLI.
type CodexProvider struct {
	BaseProvider
}

// NewCodexProvider creates a Codex provider from config.
func NewCodexProvider(cfg Config) *CodexProvider {
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Codex"
	}
	return &CodexProvider{
		BaseProvider: NewBaseProvider(cfg),
	}
}

// Generate sends a request to the Codex CLI and returns the response.
func (p *CodexProvider) Generate(ctx context.Context, req Request) (string, error) {
	args := []string{"exec", "--json"}

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

	resp, parseErr := ParseCodexJSON(rawOutput)
	if parseErr != nil {
		return rawOutput, nil
	}
	return resp.Content, nil
}
