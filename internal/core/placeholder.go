package core

import "strings"

// Placeholder responses are fixed-format strings substituted when a
// panelist's model call fails. They always start with "(" (panelists are
// prompted for plain prose, which never leads with one), so the prefix
// doubles as the sentinel consumed by the consensus and phase logic to mean
// "no usable response".

// IsPlaceholder reports whether a response is a failure placeholder.
func IsPlaceholder(response string) bool {
	return strings.HasPrefix(strings.TrimSpace(response), "(")
}

// IsValidResponse reports whether a response is usable debate content:
// non-empty and not a placeholder.
func IsValidResponse(response string) bool {
	trimmed := strings.TrimSpace(response)
	return trimmed != "" && !strings.HasPrefix(trimmed, "(")
}

// HasValidResponses reports whether at least one usable response exists in
// a round's response map.
func HasValidResponses(responses map[string]string) bool {
	for _, r := range responses {
		if IsValidResponse(r) {
			return true
		}
	}
	return false
}

// ActivePanelists returns the names from order whose response in the map is
// usable, preserving configuration order.
func ActivePanelists(order []string, responses map[string]string) []string {
	var active []string
	for _, name := range order {
		if IsValidResponse(responses[name]) {
			active = append(active, name)
		}
	}
	return active
}
