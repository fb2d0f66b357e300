package core

import (
	"reflect"
	"testing"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"ErrorPlaceholder", "(Error: provider exploded)", true},
		{"RateLimitPlaceholder", "(Rate limit exceeded: 429)", true},
		{"LeadingWhitespace", "   (Authentication failed: bad key)", true},
		{"RealResponse", "We should adopt the proposal because...", false},
		{"Empty", "", false},
		{"WhitespaceOnly", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaceholder(tt.response); got != tt.want {
				t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestIsValidResponse(t *testing.T) {
	if !IsValidResponse("A substantive argument.") {
		t.Error("substantive response should be valid")
	}
	if !IsValidResponse("  padded but real  ") {
		t.Error("whitespace-padded response should be valid")
	}
	if IsValidResponse("") {
		t.Error("empty response should not be valid")
	}
	if IsValidResponse("   ") {
		t.Error("whitespace-only response should not be valid")
	}
	if IsValidResponse("(Error: timeout)") {
		t.Error("placeholder should not be valid")
	}
}

func TestHasValidResponses(t *testing.T) {
	if HasValidResponses(nil) {
		t.Error("nil map should have no valid responses")
	}
	if HasValidResponses(map[string]string{}) {
		t.Error("empty map should have no valid responses")
	}
	if HasValidResponses(map[string]string{
		"Ada": "(Error: down)",
		"Bob": "(Rate limit exceeded: slow down)",
	}) {
		t.Error("all-placeholder round should have no valid responses")
	}
	if !HasValidResponses(map[string]string{
		"Ada": "(Error: down)",
		"Bob": "I hold that the migration is safe.",
	}) {
		t.Error("mixed round should report a valid response")
	}
}

func TestActivePanelists(t *testing.T) {
	order := []string{"Ada", "Bob", "Cy"}
	responses := map[string]string{
		"Ada": "Strong opening argument.",
		"Bob": "(Error: connection refused)",
		"Cy":  "A counterpoint worth weighing.",
	}

	got := ActivePanelists(order, responses)
	want := []string{"Ada", "Cy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ActivePanelists = %v, want %v", got, want)
	}

	// A panelist missing from the map counts as inactive.
	got = ActivePanelists([]string{"Ada", "Dee"}, responses)
	if !reflect.DeepEqual(got, []string{"Ada"}) {
		t.Errorf("missing panelist should be inactive, got %v", got)
	}

	if got := ActivePanelists(order, nil); got != nil {
		t.Errorf("nil responses should yield no active panelists, got %v", got)
	}
}
