package protocol

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/core"
)

// SystemPrompt builds the per-panelist system context: persona first, then
// the role block when one is assigned.
func SystemPrompt(personaPrompt string, role *core.AssignedRole) string {
	var parts []string
	if personaPrompt != "" {
		parts = append(parts, personaPrompt)
	}
	if block := RoleBlock(role); block != "" {
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n")
}

// OpeningPrompt builds the shared opening-round prompt. Every panelist in
// the opening round receives this exact text so no one sees a sibling's
// answer before writing their own; per-panelist differences live in the
// system context only.
func OpeningPrompt(topic string, panelSize int) string {
	return fmt.Sprintf(`You are one of %d panelists in a structured debate.

Topic: %s

This is the opening round. You have not seen any other panelist's position.

Your task:
1. State your position on the topic clearly
2. Present your strongest arguments with supporting evidence
3. Identify the key considerations that should decide this question

Be direct and substantive. Your opening statement:`, panelSize, topic)
}

// RoundPromptInput carries everything a continuation-round prompt needs for
// one panelist. Feedback is per-panelist and injected only into this
// panelist's prompt for this single call.
type RoundPromptInput struct {
	Topic        string
	RoundNumber  int
	PanelistName string
	Transcript   string
	UserMessage  string
	Tagged       bool
	Feedback     string
}

// RoundPrompt builds the prompt for a continuation round. The transcript
// covers all completed rounds; concurrent sibling responses from the current
// round are never visible.
func RoundPrompt(in RoundPromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s in round %d of a structured debate.\n\n", in.PanelistName, in.RoundNumber+1)
	fmt.Fprintf(&b, "Topic: %s\n\n", in.Topic)

	b.WriteString("Debate so far:\n")
	b.WriteString(in.Transcript)
	b.WriteString("\n")

	if in.UserMessage != "" {
		fmt.Fprintf(&b, "\nThe human moderator added:\n%s\n", in.UserMessage)
		if in.Tagged {
			b.WriteString("\nThe moderator addressed you directly. Respond to their point before anything else.\n")
		}
	}

	if in.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(in.Feedback)
		b.WriteString("\n")
	}

	b.WriteString(`
Your task:
1. Respond to the strongest claims made against your position
2. Either defend your position with new evidence or revise it and say why
3. Name any point from another panelist you now accept

Do not repeat your previous arguments verbatim. Your response:`)

	return b.String()
}

// FormatTranscript renders completed rounds as prompt text. Responses
// within each round appear in configuration order regardless of which
// panelist finished first.
func FormatTranscript(history []*core.DebateRound, order []string) string {
	if len(history) == 0 {
		return "(no rounds completed yet)\n"
	}

	var b strings.Builder
	for _, round := range history {
		fmt.Fprintf(&b, "--- Round %d ---\n", round.RoundNumber+1)
		if round.UserMessage != "" {
			fmt.Fprintf(&b, "[Moderator]: %s\n", round.UserMessage)
		}
		for _, name := range order {
			response, ok := round.PanelResponses[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "[%s]: %s\n\n", name, response)
		}
	}
	return b.String()
}
