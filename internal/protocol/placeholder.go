package protocol

import (
	"errors"
	"fmt"

	"github.com/parleyhq/parley/internal/provider"
)

// Placeholder converts a provider failure into the transcript sentinel for
// a panelist who could not answer. Every placeholder starts with "(" so it
// is recognizable without re-parsing, and the error category stays visible
// in the text.
func Placeholder(err error) string {
	if err == nil {
		return "(Error: unknown failure)"
	}

	msg := err.Error()
	var callErr *provider.CallError
	if errors.As(err, &callErr) {
		msg = callErr.Message
	}

	switch provider.CategoryOf(err) {
	case provider.CategoryAuth:
		return fmt.Sprintf("(Authentication failed: %s)", msg)
	case provider.CategoryRateLimit:
		return fmt.Sprintf("(Rate limit exceeded: %s)", msg)
	case provider.CategoryContextTooLong:
		return fmt.Sprintf("(Context too long: %s)", msg)
	default:
		return fmt.Sprintf("(Error: %s)", msg)
	}
}
