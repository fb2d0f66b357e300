package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/parleyhq/parley/internal/core"
)

// MarkdownExporter exports debates to Markdown format.
type MarkdownExporter struct{}

// Export writes the debate as Markdown.
func (e *MarkdownExporter) Export(state *core.DebateState, w io.Writer) error {
	var sb strings.Builder

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", state.Topic))

	// Metadata
	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Thread:** `%s`\n", state.ThreadID))
	sb.WriteString(fmt.Sprintf("- **Mode:** %s\n", state.DebateMode))
	sb.WriteString(fmt.Sprintf("- **Stance mode:** %s\n", state.StanceMode))
	sb.WriteString(fmt.Sprintf("- **Phase:** %s\n", state.Phase))
	sb.WriteString(fmt.Sprintf("- **Rounds:** %d of %d\n", state.DebateRoundNum, state.MaxRounds))
	sb.WriteString(fmt.Sprintf("- **Outcome:** %s\n", consensusLabel(state.ConsensusReached)))
	sb.WriteString(fmt.Sprintf("- **Created:** %s\n", state.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("\n")

	// Panel
	sb.WriteString("## Panel\n\n")
	for _, p := range state.Panel {
		sb.WriteString(fmt.Sprintf("- **%s**", formatPanelist(p)))
		if role := state.AssignedRoles[p.Name]; role != nil {
			sb.WriteString(fmt.Sprintf(" — %s: %s", role.Role, role.PositionStatement))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Rounds
	sb.WriteString("## Debate\n\n")
	if len(state.History) == 0 {
		sb.WriteString("*No rounds recorded.*\n\n")
	}
	for _, round := range state.History {
		sb.WriteString(fmt.Sprintf("### Round %d\n\n", round.RoundNumber+1))

		if round.UserMessage != "" {
			sb.WriteString(fmt.Sprintf("> **Moderator:** %s\n\n", round.UserMessage))
		}

		for _, p := range state.Panel {
			response, ok := round.PanelResponses[p.Name]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("#### %s\n\n", p.Name))
			sb.WriteString(response)
			sb.WriteString("\n\n")
		}

		if len(round.Scores) > 0 {
			sb.WriteString(scoreTable(state, round))
		}

		sb.WriteString("---\n\n")
	}

	// Summary
	if state.Summary != "" {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(fmt.Sprintf("**%s**\n\n", consensusLabel(state.ConsensusReached)))
		sb.WriteString(state.Summary)
		sb.WriteString("\n\n")
	}

	// Footer
	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from parley*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// scoreTable renders one round's scoreboard as a Markdown table.
func scoreTable(state *core.DebateState, round *core.DebateRound) string {
	var sb strings.Builder
	sb.WriteString("| Panelist | Round | Cumulative |\n")
	sb.WriteString("|---|---|---|\n")
	for _, p := range state.Panel {
		score, ok := round.Scores[p.Name]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %+d | %d |\n", p.Name, score.RoundTotal, score.Cumulative))
	}
	sb.WriteString("\n")
	return sb.String()
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
