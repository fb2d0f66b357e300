package provider

import (
	"context"
	"strings"
	"time"
)

const (
	// healthCheckPrompt asks for a trivially verifiable answer.
	healthCheckPrompt = "What is 1+1? Answer with a single digit only."

	// healthCheckTimeout bounds a single health probe.
	healthCheckTimeout = 30 * time.Second
)

// HealthStatus describes the result of a provider health probe.
type HealthStatus struct {
	Provider  string        `json:"provider"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// HealthCheck probes a provider with a trivial prompt and verifies the answer.
func HealthCheck(ctx context.Context, p Provider) HealthStatus {
	status := HealthStatus{
		Provider:  p.Name(),
		CheckedAt: time.Now(),
	}

	if !p.Available() {
		status.Error = "provider not available"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	output, err := p.Generate(ctx, Request{Prompt: healthCheckPrompt})
	status.Latency = time.Since(start)

	if err != nil {
		status.Error = err.Error()
		return status
	}

	if !validateHealthResponse(output) {
		status.Error = "unexpected response: " + truncateText(output, 80)
		return status
	}

	status.Healthy = true
	return status
}

// CheckAll probes every registered provider sequentially.
func (r *Registry) CheckAll(ctx context.Context) []HealthStatus {
	names := r.Names()
	statuses := make([]HealthStatus, 0, len(names))
	for _, name := range names {
		p, err := r.Get(name)
		if err != nil {
			continue
		}
		statuses = append(statuses, HealthCheck(ctx, p))
	}
	return statuses
}

// validateHealthResponse accepts any response containing the digit 2.
func validateHealthResponse(output string) bool {
	return strings.Contains(strings.TrimSpace(output), "2")
}
