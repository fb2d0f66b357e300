package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/provider"
)

// noValidResponsesSummary closes a debate in which no round produced a
// single valid response. Fixed text, no model call: there is nothing to
// summarize and the failed providers cannot be asked to try.
const noValidResponsesSummary = "No valid panelist responses were produced in any round; the debate ended without substantive positions to summarize."

// Moderator wraps a provider for the debate's neutral duties: consensus
// rulings and the closing summary.
type Moderator struct {
	provider provider.Provider
	model    string
}

// NewModerator creates a moderator backed by the given provider.
func NewModerator(p provider.Provider, model string) *Moderator {
	return &Moderator{provider: p, model: model}
}

// Ask sends a free-form question to the moderator model.
func (m *Moderator) Ask(ctx context.Context, prompt string) (string, error) {
	return m.provider.Generate(ctx, provider.Request{
		System: "You are a neutral debate moderator. Be precise and impartial.",
		Prompt: prompt,
		Model:  m.model,
	})
}

// Summarize synthesizes the debate's closing summary from the full
// transcript.
func (m *Moderator) Summarize(ctx context.Context, state *core.DebateState) (string, error) {
	output, err := m.Ask(ctx, buildSummaryPrompt(state))
	if err != nil {
		return "", err
	}
	return cleanFences(output), nil
}

// summarize produces the closing summary for the moderation phase. Debates
// with no substance short-circuit to a diagnostic; moderator failures
// degrade to a placeholder summary rather than blocking termination.
func (e *Engine) summarize(ctx context.Context, state *core.DebateState) string {
	if !anyValidResponses(state) {
		return noValidResponsesSummary
	}

	if e.moderator == nil {
		return fallbackSummary(state)
	}

	summary, err := e.moderator.Summarize(ctx, state)
	if err != nil {
		slog.Warn("Summary generation failed", "thread_id", state.ThreadID, "error", err)
		return fmt.Sprintf("(Summary generation failed: %v)", err)
	}
	if strings.TrimSpace(summary) == "" {
		return fallbackSummary(state)
	}
	return summary
}

// anyValidResponses reports whether any round produced at least one valid
// response.
func anyValidResponses(state *core.DebateState) bool {
	for _, round := range state.History {
		if core.HasValidResponses(round.PanelResponses) {
			return true
		}
	}
	return false
}

// fallbackSummary is used when no moderator is configured or it returned
// nothing usable.
func fallbackSummary(state *core.DebateState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate on %q ran %d round(s) with %d panelists.", state.Topic, len(state.History), len(state.Panel))
	if state.ConsensusReached {
		b.WriteString(" The panel reached consensus.")
	} else {
		b.WriteString(" The panel did not reach consensus.")
	}
	return b.String()
}

// buildSummaryPrompt renders the full debate for summarization.
func buildSummaryPrompt(state *core.DebateState) string {
	var b strings.Builder

	fmt.Fprintf(&b, `A panel of %d debated the following topic over %d round(s):

Topic: %s

Full transcript:
`, len(state.Panel), len(state.History), state.Topic)

	b.WriteString(protocol.FormatTranscript(state.History, state.PanelNames()))

	b.WriteString(`
Your task:
1. Summarize each panelist's final position in one or two sentences
2. Name the points of agreement and the unresolved disagreements
3. State the overall conclusion the debate supports, or explain why none emerged

Write plain prose, no markdown headings. Your summary:`)

	return b.String()
}

// cleanFences strips a wrapping markdown code fence from model output.
func cleanFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[1 : len(lines)-1]
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return text
}
