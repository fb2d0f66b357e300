package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider generates deterministic simulated responses for tests and
// offline development. If a script is configured it cycles through it;
// otherwise it echoes a digest of the request.
type MockProvider struct {
	BaseProvider

	mu        sync.Mutex
	script    []string
	callCount int
	requests  []Request

	// FailWith, when set, makes every Generate call return this error.
	FailWith error

	// Delay simulates model latency. Zero means respond immediately.
	Delay time.Duration
}

// NewMockProvider creates a mock provider from config.
func NewMockProvider(cfg Config) *MockProvider {
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Mock (Simulated)"
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"mock-v1"}
	}
	return &MockProvider{
		BaseProvider: NewBaseProvider(cfg),
	}
}

// SetScript replaces the canned responses the mock cycles through and
// clears the call history.
func (p *MockProvider) SetScript(responses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = responses
	p.callCount = 0
	p.requests = nil
}

// Generate returns the next scripted response, or an echo of the request.
func (p *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)

	if p.FailWith != nil {
		return "", p.FailWith
	}

	if len(p.script) > 0 {
		resp := p.script[p.callCount%len(p.script)]
		p.callCount++
		return resp, nil
	}

	p.callCount++
	return fmt.Sprintf("Mock response %d to: %s", p.callCount, truncateText(req.Prompt, 60)), nil
}

// Available always returns true for the mock provider.
func (p *MockProvider) Available() bool {
	return true
}

// CallCount returns how many times Generate has been invoked.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// Requests returns every request received so far, in arrival order.
func (p *MockProvider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}
