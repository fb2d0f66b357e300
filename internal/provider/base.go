package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strings"
	"time"
)

const (
	// MaxOutputSize is the maximum size of CLI output (10MB).
	MaxOutputSize = 10 * 1024 * 1024

	// DefaultTimeout is the default timeout for generation calls.
	DefaultTimeout = 5 * time.Minute
)

// BaseProvider provides common functionality for CLI-based providers.
// Specific providers embed it to inherit execution, retry and health logic.
type BaseProvider struct {
	name         string
	displayName  string
	command      string
	args         []string
	defaultModel string
	models       []string
	timeout      time.Duration
	maxRetries   int
}

// NewBaseProvider creates a new base provider from configuration.
func NewBaseProvider(cfg Config) BaseProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = cfg.Name
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return BaseProvider{
		name:         cfg.Name,
		displayName:  displayName,
		command:      cfg.Command,
		args:         cfg.Args,
		defaultModel: cfg.DefaultModel,
		models:       cfg.Models,
		timeout:      timeout,
		maxRetries:   maxRetries,
	}
}

// Name returns the provider identifier.
func (p *BaseProvider) Name() string { return p.name }

// DisplayName returns the human-friendly name.
func (p *BaseProvider) DisplayName() string { return p.displayName }

// Models returns available models.
func (p *BaseProvider) Models() []string { return p.models }

// DefaultModel returns the default model.
func (p *BaseProvider) DefaultModel() string { return p.defaultModel }

// Timeout returns the configured per-call timeout.
func (p *BaseProvider) Timeout() time.Duration { return p.timeout }

// Available checks if the CLI tool is installed and accessible.
func (p *BaseProvider) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// validateExecutable checks if the CLI is on PATH before execution.
func (p *BaseProvider) validateExecutable() error {
	if _, err := exec.LookPath(p.command); err != nil {
		return &CallError{
			Provider: p.name,
			Category: CategoryOther,
			Message:  fmt.Sprintf("executable '%s' not found in PATH", p.command),
			Err:      err,
		}
	}
	return nil
}

// limitedWriter wraps an io.Writer and limits total bytes written.
type limitedWriter struct {
	w       io.Writer
	n       int64
	limit   int64
	limited bool
}

func newLimitedWriter(w io.Writer, limit int64) *limitedWriter {
	return &limitedWriter{w: w, limit: limit}
}

func (l *limitedWriter) Write(p []byte) (n int, err error) {
	if l.n >= l.limit {
		l.limited = true
		return len(p), nil // discard, but don't error
	}

	remaining := l.limit - l.n
	if int64(len(p)) > remaining {
		p = p[:remaining]
		l.limited = true
	}

	n, err = l.w.Write(p)
	l.n += int64(n)
	return n, err
}

// executeOnce runs the CLI command with the given arguments (single attempt).
func (p *BaseProvider) executeOnce(ctx context.Context, extraArgs ...string) (string, error) {
	if err := p.validateExecutable(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	allArgs := append([]string{}, p.args...)
	allArgs = append(allArgs, extraArgs...)

	slog.Debug("Executing CLI command",
		"provider", p.name,
		"command", p.command,
		"arg_count", len(allArgs),
	)

	cmd := exec.CommandContext(ctx, p.command, allArgs...)

	var stdout, stderr bytes.Buffer
	stdoutLimited := newLimitedWriter(&stdout, MaxOutputSize)
	stderrLimited := newLimitedWriter(&stderr, MaxOutputSize)
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	if err := cmd.Run(); err != nil {
		slog.Debug("CLI command failed",
			"provider", p.name,
			"error", err,
			"stderr", truncateText(stderr.String(), 400),
		)
		if ctx.Err() == context.DeadlineExceeded {
			return "", &CallError{
				Provider: p.name,
				Category: CategoryOther,
				Message:  "command timed out",
				Err:      ctx.Err(),
			}
		}
		if stderr.Len() > 0 {
			errMsg := stderr.String()
			if stderrLimited.limited {
				errMsg += "\n... (output truncated)"
			}
			return "", NewCallError(p.name, errMsg, err)
		}
		return "", NewCallError(p.name, "command failed", err)
	}

	result := strings.TrimSpace(stdout.String())
	if stdoutLimited.limited {
		result += "\n... (output truncated at 10MB)"
	}

	return result, nil
}

// execute runs the CLI command with retry logic for transient failures.
func (p *BaseProvider) execute(ctx context.Context, extraArgs ...string) (string, error) {
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Info("Retrying command after backoff",
				"provider", p.name,
				"attempt", attempt+1,
				"max_attempts", p.maxRetries+1,
				"backoff", backoff,
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		result, err := p.executeOnce(ctx, extraArgs...)
		if err == nil {
			return result, nil
		}

		if !isRetriable(err) || attempt == p.maxRetries {
			return "", err
		}

		slog.Warn("Command failed, will retry",
			"provider", p.name,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return "", fmt.Errorf("unexpected retry loop exit")
}
