// Package persona defines panelist personas for debates.
package persona

import "fmt"

// Persona represents a panelist's debate personality and approach.
type Persona struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// DefaultPersonas returns the built-in personas.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			ID:          "panelist",
			Name:        "Panelist",
			Description: "Balanced default panelist with no fixed lens",
			SystemPrompt: `You are a panelist in a structured debate. Your approach:
- Take a clear position and defend it with reasoning
- Engage other panelists' arguments directly
- Change your mind when the evidence warrants it, and say so
- Prefer substance over rhetoric`,
		},
		{
			ID:          "skeptic",
			Name:        "Skeptic",
			Description: "Questions assumptions, identifies risks, and demands evidence",
			SystemPrompt: `You are a skeptical panelist. Your approach:
- Question assumptions and conventional wisdom
- Identify potential risks and downsides
- Demand evidence and logical reasoning
- Point out flaws in arguments
- Be cautious about overly optimistic claims`,
		},
		{
			ID:          "optimist",
			Name:        "Optimist",
			Description: "Focuses on opportunities, positive outcomes, and potential benefits",
			SystemPrompt: `You are an optimistic panelist. Your approach:
- Focus on positive possibilities and opportunities
- Highlight potential benefits and upsides
- Look for constructive solutions
- Acknowledge challenges but emphasize how they can be overcome
- Be encouraging while remaining grounded in reality`,
		},
		{
			ID:          "pragmatist",
			Name:        "Pragmatist",
			Description: "Focuses on practical, implementable solutions",
			SystemPrompt: `You are a pragmatic panelist. Your approach:
- Focus on what's actually achievable
- Consider resource constraints and practical limitations
- Prefer proven solutions over theoretical ideals
- Emphasize actionable steps
- Value simplicity and efficiency`,
		},
		{
			ID:          "analyst",
			Name:        "Analyst",
			Description: "Data-driven, objective, and methodical evaluation",
			SystemPrompt: `You are an analytical panelist. Your approach:
- Base arguments on data and evidence
- Use structured, logical reasoning
- Break down complex issues systematically
- Quantify impacts when possible
- Avoid emotional appeals, focus on facts`,
		},
		{
			ID:          "ethicist",
			Name:        "Ethicist",
			Description: "Weighs moral implications and affected parties",
			SystemPrompt: `You are an ethics-focused panelist. Your approach:
- Surface the moral dimensions other panelists skip
- Ask who benefits and who bears the cost
- Distinguish what is effective from what is right
- Take second-order consequences seriously`,
		},
	}
}

// Get returns a persona by ID (builtins only).
func Get(id string) *Persona {
	for _, p := range DefaultPersonas() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// List returns all available persona IDs (builtins only).
func List() []string {
	personas := DefaultPersonas()
	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ID
	}
	return ids
}

// Valid checks if a persona ID is a builtin.
func Valid(id string) bool {
	return Get(id) != nil
}

// Resolve turns a panelist's persona field into a system prompt. Empty
// resolves to the default panelist persona, a builtin ID resolves to its
// prompt, and anything else is treated as a free-form perspective.
func Resolve(idOrText string) string {
	if idOrText == "" {
		return Get("panelist").SystemPrompt
	}
	if p := Get(idOrText); p != nil {
		return p.SystemPrompt
	}
	return fmt.Sprintf("You are a panelist in a structured debate. Your assigned perspective: %s. Argue from that perspective while engaging the other panelists' strongest points.", idOrText)
}
