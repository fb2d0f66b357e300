// Package evaluator extracts structured argument analysis from raw debate
// responses. Evaluation is strictly best-effort: the debate engine treats
// every evaluator error as a soft failure and records the round without
// quality data rather than blocking it.
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/provider"
)

// Input carries one completed round for analysis. Responses holds only
// valid responses; placeholders never reach the evaluator.
type Input struct {
	Topic       string
	RoundNumber int
	Responses   map[string]string
	Order       []string
	PrevClaims  []core.ArgumentUnit
}

// Evaluator analyzes a round of responses.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) (*core.RoundQuality, error)
}

// ModelEvaluator implements Evaluator by prompting a model for a JSON
// analysis and leniently parsing whatever comes back.
type ModelEvaluator struct {
	provider provider.Provider
	model    string
}

// New creates a model-backed evaluator.
func New(p provider.Provider, model string) *ModelEvaluator {
	return &ModelEvaluator{provider: p, model: model}
}

// panelistAnalysis is the per-panelist schema the model fills in.
type panelistAnalysis struct {
	Name             string  `json:"name"`
	Stance           string  `json:"stance"`
	Confidence       float64 `json:"confidence"`
	CoreClaim        string  `json:"core_claim"`
	EvidenceStrength float64 `json:"evidence_strength"`
	Arguments        []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	} `json:"arguments"`
	Concessions []struct {
		To    string `json:"to"`
		Point string `json:"point"`
	} `json:"concessions"`
	Responsiveness *struct {
		Score     float64 `json:"score"`
		Addressed int     `json:"addressed"`
		Missed    int     `json:"missed"`
	} `json:"responsiveness"`
}

type roundAnalysis struct {
	Panelists []panelistAnalysis `json:"panelists"`
}

// Evaluate asks the model to analyze every response in the round and maps
// the result onto core quality types. Unknown panelist names in the answer
// are dropped; unknown stance labels normalize to NEUTRAL.
func (e *ModelEvaluator) Evaluate(ctx context.Context, in Input) (*core.RoundQuality, error) {
	if len(in.Responses) == 0 {
		return &core.RoundQuality{}, nil
	}

	output, err := e.provider.Generate(ctx, provider.Request{
		System: "You are a debate analyst. You respond with JSON only, no prose.",
		Prompt: buildPrompt(in),
		Model:  e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation call failed: %w", err)
	}

	var analysis roundAnalysis
	if err := smartParse(extractJSON(output), &analysis); err != nil {
		return nil, fmt.Errorf("evaluation output unparseable: %w", err)
	}

	return e.toQuality(in, analysis), nil
}

// toQuality maps the model's analysis onto core types, filtering out
// panelists that were not part of the round.
func (e *ModelEvaluator) toQuality(in Input, analysis roundAnalysis) *core.RoundQuality {
	quality := &core.RoundQuality{
		Stances:        make(map[string]*core.Stance),
		Responsiveness: make(map[string]*core.Responsiveness),
	}

	for _, p := range analysis.Panelists {
		name := matchName(p.Name, in.Order)
		if name == "" {
			continue
		}
		if _, ok := in.Responses[name]; !ok {
			continue
		}

		quality.Stances[name] = &core.Stance{
			Label:            normalizeStance(p.Stance),
			Confidence:       clamp01(p.Confidence),
			CoreClaim:        p.CoreClaim,
			EvidenceStrength: clamp01(p.EvidenceStrength),
		}

		for _, arg := range p.Arguments {
			kind, ok := normalizeKind(arg.Kind)
			if !ok || strings.TrimSpace(arg.Text) == "" {
				continue
			}
			quality.Arguments = append(quality.Arguments, core.ArgumentUnit{
				ID:       core.NewRecordID(),
				Panelist: name,
				Kind:     kind,
				Text:     arg.Text,
				Round:    in.RoundNumber,
			})
		}

		for _, c := range p.Concessions {
			if strings.TrimSpace(c.Point) == "" {
				continue
			}
			quality.Concessions = append(quality.Concessions, core.Concession{
				Panelist:   name,
				ToPanelist: matchName(c.To, in.Order),
				Point:      c.Point,
				Round:      in.RoundNumber,
			})
		}

		if p.Responsiveness != nil {
			quality.Responsiveness[name] = &core.Responsiveness{
				Score:     clamp01(p.Responsiveness.Score),
				Addressed: p.Responsiveness.Addressed,
				Missed:    p.Responsiveness.Missed,
			}
		}
	}

	return quality
}

// buildPrompt renders the round for analysis.
func buildPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze round %d of a debate on this topic:\n\n%s\n\nResponses:\n", in.RoundNumber+1, in.Topic)

	for _, name := range in.Order {
		response, ok := in.Responses[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n[%s]:\n%s\n", name, response)
	}

	if len(in.PrevClaims) > 0 {
		b.WriteString("\nClaims made in the previous round (for responsiveness):\n")
		for _, claim := range in.PrevClaims {
			fmt.Fprintf(&b, "- (%s) %s\n", claim.Panelist, claim.Text)
		}
	}

	b.WriteString(`
For every panelist, extract:
- stance: FOR, AGAINST, CONDITIONAL or NEUTRAL on the topic
- confidence: 0.0 to 1.0, how firmly the stance is held
- core_claim: their central claim in one sentence
- evidence_strength: 0.0 to 1.0, how well-evidenced the response is
- arguments: list of {kind, text} where kind is claim, evidence, challenge or concession
- concessions: list of {to, point} for any point explicitly granted to another panelist
- responsiveness: {score 0.0-1.0, addressed, missed} against the previous round's claims

Respond with JSON only in this shape:
{"panelists": [{"name": "...", "stance": "FOR", "confidence": 0.8, "core_claim": "...", "evidence_strength": 0.5, "arguments": [{"kind": "claim", "text": "..."}], "concessions": [], "responsiveness": {"score": 0.7, "addressed": 2, "missed": 1}}]}`)

	return b.String()
}

// matchName resolves a model-reported panelist name against the panel,
// case-insensitively. Returns "" when nothing matches.
func matchName(reported string, order []string) string {
	reported = strings.TrimSpace(reported)
	for _, name := range order {
		if strings.EqualFold(name, reported) {
			return name
		}
	}
	return ""
}

func normalizeStance(label string) core.StanceLabel {
	switch core.StanceLabel(strings.ToUpper(strings.TrimSpace(label))) {
	case core.StanceFor:
		return core.StanceFor
	case core.StanceAgainst:
		return core.StanceAgainst
	case core.StanceConditional:
		return core.StanceConditional
	default:
		return core.StanceNeutral
	}
}

func normalizeKind(kind string) (core.ArgumentKind, bool) {
	switch core.ArgumentKind(strings.ToLower(strings.TrimSpace(kind))) {
	case core.ArgClaim:
		return core.ArgClaim, true
	case core.ArgEvidence:
		return core.ArgEvidence, true
	case core.ArgChallenge:
		return core.ArgChallenge, true
	case core.ArgConcession:
		return core.ArgConcession, true
	}
	return "", false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
