package protocol

import (
	"fmt"
	"strings"
)

// FeedbackInput carries one panelist's standing going into their turn.
type FeedbackInput struct {
	PanelistName     string
	Cumulative       int
	LeaderName       string
	LeaderScore      int
	Gap              int
	ForcedConcession bool
	LeaderClaim      string
}

// ScoreFeedback renders a panelist's scoreboard standing as prompt text.
// The text exists only inside this panelist's prompt for this single turn;
// it is never written to the shared transcript. When the panelist trails
// far enough to trigger a forced concession, the feedback carries a
// mandatory instruction naming the leading argument.
func ScoreFeedback(in FeedbackInput) string {
	var b strings.Builder

	b.WriteString("Scoreboard:\n")
	fmt.Fprintf(&b, "- Your cumulative argument score: %d\n", in.Cumulative)

	if in.LeaderName == in.PanelistName {
		b.WriteString("- You currently hold the strongest position on the scoreboard.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- Current leader: %s with %d\n", in.LeaderName, in.LeaderScore)
	fmt.Fprintf(&b, "- You trail by %d points\n", in.Gap)

	if in.ForcedConcession {
		b.WriteString("\nMANDATORY: You are being significantly outargued. In this response you must explicitly concede the strongest point made against your position")
		if in.LeaderClaim != "" {
			fmt.Fprintf(&b, " (%s's central claim: %s)", in.LeaderName, in.LeaderClaim)
		}
		b.WriteString(", then either rebuild your argument around that concession or revise your position.\n")
	}

	return b.String()
}
