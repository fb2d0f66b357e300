// Package consensus decides whether a debate round has converged.
//
// Detection runs a fixed gate sequence: participatory debates never
// auto-converge, an empty round never converges, a lone active panelist
// trivially converges, aligned high-confidence stances converge on
// structure alone, and only ambiguous rounds fall through to a moderator
// model. A moderator that fails or answers unclearly counts as no
// consensus, so a debate can never converge by accident.
package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/core"
)

const (
	// ConfidenceFloor is the minimum stance confidence for structural
	// consensus.
	ConfidenceFloor = 0.60

	// EvidenceFloor is the evidence strength at least one aligned stance
	// must exceed for structural consensus.
	EvidenceFloor = 0.30

	// consensusMarker is the literal the moderator must emit to declare
	// consensus.
	consensusMarker = "CONSENSUS: YES"

	// maxResponseExcerpt bounds per-panelist text in the moderator prompt.
	maxResponseExcerpt = 600
)

// Moderator asks a model a free-form question and returns its answer.
type Moderator interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Decision is the outcome of one consensus check.
type Decision struct {
	Reached bool   `json:"reached"`
	Method  string `json:"method"`
	Detail  string `json:"detail,omitempty"`
}

// Detection methods.
const (
	MethodMode      = "participatory_mode"
	MethodEmpty     = "no_valid_responses"
	MethodSingle    = "single_participant"
	MethodStances   = "stance_alignment"
	MethodModerator = "moderator"
)

// Detector evaluates rounds for consensus.
type Detector struct {
	moderator Moderator
}

// New creates a consensus detector. The moderator may be nil, in which
// case ambiguous rounds simply never converge.
func New(moderator Moderator) *Detector {
	return &Detector{moderator: moderator}
}

// Evaluate runs the gate sequence for one completed round. The stances map
// may be nil or partial when response analysis failed; missing stances
// route the decision to the moderator rather than blocking it.
func (d *Detector) Evaluate(ctx context.Context, state *core.DebateState, responses map[string]string, stances map[string]*core.Stance) Decision {
	// Participatory debates close only when the human says so.
	if state.DebateMode == core.ModeParticipatory {
		return Decision{Method: MethodMode, Detail: "participatory debates require human closure"}
	}

	active := core.ActivePanelists(state.PanelNames(), responses)
	if len(active) == 0 {
		return Decision{Method: MethodEmpty, Detail: "no panelist produced a valid response"}
	}
	if len(active) == 1 {
		return Decision{
			Reached: true,
			Method:  MethodSingle,
			Detail:  fmt.Sprintf("only %s is still responding", active[0]),
		}
	}

	// Structural check on extracted stances.
	if decision, decided := d.checkStances(active, stances); decided {
		return decision
	}

	return d.askModerator(ctx, state, active, responses)
}

// checkStances applies the structural consensus rule. It decides only when
// stances exist for at least two active panelists: identical labels with
// uniformly high confidence and at least one well-evidenced stance is
// consensus, any disagreement on labels is a definitive no, and aligned
// but weakly held stances stay undecided.
func (d *Detector) checkStances(active []string, stances map[string]*core.Stance) (Decision, bool) {
	var held []*core.Stance
	for _, name := range active {
		if s := stances[name]; s != nil {
			held = append(held, s)
		}
	}
	if len(held) < 2 {
		return Decision{}, false
	}

	label := held[0].Label
	allConfident := true
	strongEvidence := false

	for _, s := range held {
		if s.Label != label {
			return Decision{
				Method: MethodStances,
				Detail: fmt.Sprintf("positions diverge: %s vs %s", label, s.Label),
			}, true
		}
		if s.Confidence < ConfidenceFloor {
			allConfident = false
		}
		if s.EvidenceStrength > EvidenceFloor {
			strongEvidence = true
		}
	}

	if allConfident && strongEvidence {
		return Decision{
			Reached: true,
			Method:  MethodStances,
			Detail:  fmt.Sprintf("all panelists hold %s with high confidence", label),
		}, true
	}

	// Aligned but not convincingly: leave it to the moderator.
	return Decision{}, false
}

// askModerator puts the round to the moderator model. Unparseable or failed
// answers are conservative no-consensus outcomes, never errors.
func (d *Detector) askModerator(ctx context.Context, state *core.DebateState, active []string, responses map[string]string) Decision {
	if d.moderator == nil {
		return Decision{Method: MethodModerator, Detail: "no moderator configured"}
	}

	answer, err := d.moderator.Ask(ctx, buildModeratorPrompt(state.Topic, active, responses))
	if err != nil {
		return Decision{Method: MethodModerator, Detail: fmt.Sprintf("moderator unavailable: %v", err)}
	}

	if strings.Contains(strings.ToUpper(answer), consensusMarker) {
		return Decision{Reached: true, Method: MethodModerator, Detail: "moderator declared consensus"}
	}
	return Decision{Method: MethodModerator, Detail: "moderator did not declare consensus"}
}

// buildModeratorPrompt renders the round for a yes/no consensus ruling.
func buildModeratorPrompt(topic string, active []string, responses map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are moderating a panel debate.

Topic: %s

Latest responses:
`, topic)

	for _, name := range active {
		fmt.Fprintf(&b, "\n[%s]:\n%s\n", name, excerpt(responses[name]))
	}

	b.WriteString(`
Have the panelists reached consensus on the topic? Consensus means they
agree on the conclusion, not merely on side points.

Answer with exactly "CONSENSUS: YES" or "CONSENSUS: NO" on the first line,
then one sentence of justification.`)

	return b.String()
}

func excerpt(text string) string {
	if len(text) <= maxResponseExcerpt {
		return text
	}
	return text[:maxResponseExcerpt] + "..."
}
