package core

import (
	"fmt"
	"strings"
)

// ParsePanelistSpec parses a panelist specification string.
// Format: [name=]provider[/model][:persona]
//
// Examples:
//   - "claude" -> {Name: "claude", Provider: "claude"}
//   - "claude/sonnet" -> {Name: "claude", Provider: "claude", Model: "sonnet"}
//   - "Ada=claude/opus:skeptic" -> {Name: "Ada", Provider: "claude", Model: "opus", Persona: "skeptic"}
func ParsePanelistSpec(spec string) (Panelist, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Panelist{}, fmt.Errorf("panelist spec cannot be empty")
	}

	var p Panelist

	// Split off an explicit name.
	rest := spec
	if idx := strings.Index(spec, "="); idx != -1 {
		p.Name = strings.TrimSpace(spec[:idx])
		rest = spec[idx+1:]
		if p.Name == "" {
			return Panelist{}, fmt.Errorf("panelist name cannot be empty in spec: %s", spec)
		}
	}

	// Split provider[/model] from persona.
	parts := strings.SplitN(rest, ":", 2)

	providerParts := strings.SplitN(parts[0], "/", 2)
	p.Provider = strings.TrimSpace(providerParts[0])
	if p.Provider == "" {
		return Panelist{}, fmt.Errorf("provider cannot be empty in spec: %s", spec)
	}

	if len(providerParts) == 2 {
		p.Model = strings.TrimSpace(providerParts[1])
	}
	if len(parts) == 2 {
		p.Persona = strings.TrimSpace(parts[1])
	}

	if p.Name == "" {
		p.Name = p.Provider
	}

	return p, nil
}

// ParsePanelistSpecs parses a comma-separated list of panelist
// specifications. Panelists without an explicit name are named after their
// provider, with a numeric suffix appended on collision so every name is
// unique (names key role assignments, responses and scores).
func ParsePanelistSpecs(specsStr string) ([]Panelist, error) {
	if strings.TrimSpace(specsStr) == "" {
		return nil, fmt.Errorf("panelist specs cannot be empty")
	}

	specs := strings.Split(specsStr, ",")
	panel := make([]Panelist, 0, len(specs))
	used := make(map[string]int)

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}

		p, err := ParsePanelistSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid panelist spec '%s': %w", spec, err)
		}

		base := p.Name
		if n := used[strings.ToLower(base)]; n > 0 {
			p.Name = fmt.Sprintf("%s-%d", base, n+1)
		}
		used[strings.ToLower(base)]++

		panel = append(panel, p)
	}

	if len(panel) == 0 {
		return nil, fmt.Errorf("no valid panelist specs found")
	}

	return panel, nil
}

// ValidatePanel checks structural requirements on a panel: at least one
// panelist, no empty providers, and unique names (case-insensitive).
func ValidatePanel(panel []Panelist) error {
	if len(panel) == 0 {
		return fmt.Errorf("panel must have at least one panelist")
	}

	seen := make(map[string]bool, len(panel))
	for _, p := range panel {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("panelist name cannot be empty")
		}
		if strings.TrimSpace(p.Provider) == "" {
			return fmt.Errorf("panelist %s has no provider", p.Name)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate panelist name: %s", p.Name)
		}
		seen[key] = true
	}

	return nil
}
