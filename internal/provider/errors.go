package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Category classifies a generation failure. The round protocol keys its
// placeholder text off the category, so classification must be
// deterministic for a given error text.
type Category string

const (
	CategoryAuth           Category = "auth"
	CategoryRateLimit      Category = "rate_limit"
	CategoryContextTooLong Category = "context_too_long"
	CategoryOther          Category = "other"
)

// CallError represents a failed generation call.
type CallError struct {
	// Provider is the name of the provider that failed.
	Provider string

	// Category is the failure classification.
	Category Category

	// Message is a human-readable error message.
	Message string

	// Err is the underlying error (if any).
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider error [%s]: %s", e.Provider, e.Category, e.Message)
}

// Unwrap returns the underlying error.
func (e *CallError) Unwrap() error {
	return e.Err
}

// NewCallError builds a CallError, classifying the category from the
// message and underlying error text.
func NewCallError(providerName, message string, err error) *CallError {
	return &CallError{
		Provider: providerName,
		Category: classify(message, err),
		Message:  message,
		Err:      err,
	}
}

// CategoryOf extracts the failure category from any error. Errors that are
// not CallErrors classify as CategoryOther.
func CategoryOf(err error) Category {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Category
	}
	return CategoryOther
}

// classify maps error text onto a failure category.
func classify(message string, err error) Category {
	text := strings.ToLower(message)
	if err != nil {
		text += " " + strings.ToLower(err.Error())
	}

	switch {
	case containsAny(text,
		"401", "403", "unauthorized", "forbidden", "api key", "apikey",
		"authentication", "credential", "permission denied", "not logged in"):
		return CategoryAuth
	case containsAny(text,
		"429", "rate limit", "rate-limit", "ratelimit", "quota",
		"resource exhausted", "too many requests", "overloaded"):
		return CategoryRateLimit
	case containsAny(text,
		"context length", "context window", "prompt is too long",
		"input too long", "token limit", "maximum context", "content too large"):
		return CategoryContextTooLong
	default:
		return CategoryOther
	}
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// isRetriable checks if an error is worth retrying. Auth and context-size
// failures never resolve on retry; rate limits and transient network
// conditions might.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var callErr *CallError
	if !errors.As(err, &callErr) {
		return false
	}

	switch callErr.Category {
	case CategoryAuth, CategoryContextTooLong:
		return false
	case CategoryRateLimit:
		return true
	}

	msg := strings.ToLower(callErr.Message)
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "temporary") ||
		strings.Contains(msg, "unavailable")
}
