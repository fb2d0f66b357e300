// Package provider abstracts the model backends that generate panelist
// responses. Most providers wrap command-line AI tools; one talks to the
// Gemini API directly. All of them expose the same small interface so the
// engine never cares which backend a panelist is bound to.
package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Request is a single generation request.
type Request struct {
	// System carries per-call role/system instructions (position role,
	// behavioral constraints, score feedback). May be empty.
	System string

	// Prompt is the task text, typically the shared transcript plus the
	// round instructions.
	Prompt string

	// Model overrides the provider's default model when non-empty.
	Model string
}

// Input renders the request as a single prompt string for backends without
// a separate system channel. The system block leads so role constraints are
// read before the transcript.
func (r Request) Input() string {
	if r.System == "" {
		return r.Prompt
	}
	return r.System + "\n\n" + r.Prompt
}

// Provider defines the interface for model backends.
type Provider interface {
	// Name returns the provider's unique identifier (e.g., "claude").
	Name() string

	// DisplayName returns a human-friendly name.
	DisplayName() string

	// Generate sends a request and returns the plain-text response.
	// Failures are returned as *CallError with a category the round
	// protocol uses to pick deterministic placeholder text.
	Generate(ctx context.Context, req Request) (string, error)

	// Available checks if the provider can be called at all (CLI
	// installed, API key present).
	Available() bool

	// Models returns the models this provider is known to support.
	Models() []string

	// DefaultModel returns the model used when a request does not name one.
	DefaultModel() string
}

// Config holds configuration for creating a provider.
type Config struct {
	// Name is the unique identifier for this provider.
	Name string

	// DisplayName is a human-friendly name. Defaults to Name.
	DisplayName string

	// Command is the CLI executable name, for CLI-backed providers.
	Command string

	// Args are default arguments prepended to every invocation.
	Args []string

	// DefaultModel is used when Request.Model is empty.
	DefaultModel string

	// Models lists the models this provider accepts.
	Models []string

	// Timeout bounds a single generation call. Default: 5 minutes.
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	MaxRetries int

	// APIKey is the credential for API-backed providers. CLI providers
	// ignore it.
	APIKey string
}

// New creates a provider instance for the given configuration. Unknown
// names fall back to the generic CLI provider.
func New(cfg Config) Provider {
	switch cfg.Name {
	case "claude":
		return NewClaudeProvider(cfg)
	case "gemini":
		return NewGeminiProvider(cfg)
	case "codex", "openai":
		return NewCodexProvider(cfg)
	case "gemini-api":
		return NewGeminiAPIProvider(cfg)
	case "mock":
		return NewMockProvider(cfg)
	default:
		return NewGenericProvider(cfg)
	}
}

// Registry manages available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, replacing any existing one with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Has checks if a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// List returns all registered providers.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// Available returns all providers that are currently callable.
func (r *Registry) Available() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Provider
	for _, p := range r.providers {
		if p.Available() {
			available = append(available, p)
		}
	}
	return available
}

// Names returns the names of all registered providers, unsorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// truncateText shortens s for log and error messages.
func truncateText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
