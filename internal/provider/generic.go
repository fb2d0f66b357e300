package provider

import (
	"context"
)

// GenericProvider is a configurable provider for custom CLI tools. It
// passes the composed input as the final positional argument and returns
// stdout verbatim.
type GenericProvider struct {
	BaseProvider
}

// NewGenericProvider creates a generic provider from config.
func NewGenericProvider(cfg Config) *GenericProvider {
	return &GenericProvider{
		BaseProvider: NewBaseProvider(cfg),
	}
}

// Generate sends a request to the configured CLI and returns the response.
func (p *GenericProvider) Generate(ctx context.Context, req Request) (string, error) {
	args := []string{}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	args = append(args, req.Input())
	return p.execute(ctx, args...)
}
