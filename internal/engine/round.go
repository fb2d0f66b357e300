package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/parleyhq/parley/internal/consensus"
	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/evaluator"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/persona"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/provider"
	"github.com/parleyhq/parley/internal/scoring"
)

// roundOutcome is everything one executed round produced.
type roundOutcome struct {
	responses map[string]string
	quality   *core.RoundQuality
	scores    map[string]*core.RoundScore
	decision  consensus.Decision
}

// panelCall is one prepared panelist turn, fixed before fan-out so every
// prompt is sealed against sibling output from the same round.
type panelCall struct {
	index    int
	name     string
	provider provider.Provider
	request  provider.Request
}

// panelResult is one panelist's completed turn. Index ties it back to
// configuration order regardless of arrival order.
type panelResult struct {
	index int
	text  string
	err   error
}

// runRound executes one debate round: build all prompts, fan out the model
// calls concurrently, fan back in by configuration order, then analyze,
// score and check for consensus. Individual call failures become
// placeholder responses; runRound itself fails only on broken
// configuration.
func (e *Engine) runRound(ctx context.Context, state *core.DebateState, rec *eventRecorder) (*roundOutcome, error) {
	order := state.PanelNames()

	var scorer *scoring.Engine
	if state.ScoringEnabled {
		scorer = scoring.NewFromHistory(order, state.History)
		scorer.AdvanceRound()
	}

	calls, err := e.prepareCalls(state, scorer, rec)
	if err != nil {
		return nil, err
	}

	responses := e.fanOut(ctx, state, calls)

	for _, name := range order {
		rec.emit(events.TypePanelistResponse, events.PanelistResponseData{
			Panelist:    name,
			Round:       state.DebateRoundNum,
			Response:    responses[name],
			Placeholder: core.IsPlaceholder(responses[name]),
		})
	}

	quality := e.analyzeRound(ctx, state, responses, rec)

	var scores map[string]*core.RoundScore
	if scorer != nil && (quality != nil || len(state.PendingVotes) > 0) {
		scores = scorer.ScoreRound(scoring.RoundInput{
			RoundNumber: state.DebateRoundNum,
			Responses:   responses,
			Quality:     quality,
			Votes:       state.PendingVotes,
		})
		for _, name := range order {
			score := scores[name]
			if score == nil {
				continue
			}
			rec.emit(events.TypeScoreUpdate, events.ScoreUpdateData{
				Panelist:   name,
				Round:      state.DebateRoundNum,
				RoundTotal: score.RoundTotal,
				Cumulative: score.Cumulative,
				Events:     score.Events,
			})
		}
	}

	var stances map[string]*core.Stance
	if quality != nil {
		stances = quality.Stances
	}
	decision := e.consensus.Evaluate(ctx, state, responses, stances)

	return &roundOutcome{
		responses: responses,
		quality:   quality,
		scores:    scores,
		decision:  decision,
	}, nil
}

// prepareCalls builds every panelist's sealed request for this round. The
// opening round shares one prompt text; later rounds get the transcript of
// completed rounds plus any per-panelist score feedback. Forced-concession
// warnings are emitted here, during sequential preparation, so their order
// on the stream is deterministic.
func (e *Engine) prepareCalls(state *core.DebateState, scorer *scoring.Engine, rec *eventRecorder) ([]panelCall, error) {
	order := state.PanelNames()
	calls := make([]panelCall, 0, len(order))

	var opening, transcript string
	if state.DebateRoundNum == 0 {
		opening = protocol.OpeningPrompt(state.Topic, len(order))
	} else {
		transcript = protocol.FormatTranscript(state.History, order)
	}

	tagged := make(map[string]bool, len(state.TaggedPanelists))
	for _, name := range state.TaggedPanelists {
		tagged[name] = true
	}

	for i, p := range state.Panel {
		prov, err := e.registry.Get(p.Provider)
		if err != nil {
			return nil, err
		}

		var prompt string
		if state.DebateRoundNum == 0 {
			prompt = opening
		} else {
			var feedback string
			if scorer != nil {
				standing := scorer.StandingFor(p.Name)
				if standing.ForcedConcession {
					rec.emit(events.TypeForcedConcessionWarning, events.ForcedConcessionData{
						Panelist: p.Name,
						Leader:   standing.LeaderName,
						Gap:      standing.Gap,
					})
				}
				feedback = protocol.ScoreFeedback(protocol.FeedbackInput{
					PanelistName:     p.Name,
					Cumulative:       standing.Cumulative,
					LeaderName:       standing.LeaderName,
					LeaderScore:      standing.LeaderScore,
					Gap:              standing.Gap,
					ForcedConcession: standing.ForcedConcession,
					LeaderClaim:      standing.LeaderClaim,
				})
			}
			prompt = protocol.RoundPrompt(protocol.RoundPromptInput{
				Topic:        state.Topic,
				RoundNumber:  state.DebateRoundNum,
				PanelistName: p.Name,
				Transcript:   transcript,
				UserMessage:  state.PendingUserMessage,
				Tagged:       tagged[p.Name],
				Feedback:     feedback,
			})
		}

		calls = append(calls, panelCall{
			index:    i,
			name:     p.Name,
			provider: prov,
			request: provider.Request{
				System: protocol.SystemPrompt(persona.Resolve(p.Persona), state.AssignedRoles[p.Name]),
				Prompt: prompt,
				Model:  p.Model,
			},
		})
	}

	return calls, nil
}

// fanOut runs every prepared call concurrently and collects responses
// keyed by panelist name. Failures never cancel sibling calls; they become
// placeholder responses attributed to the failing panelist.
func (e *Engine) fanOut(ctx context.Context, state *core.DebateState, calls []panelCall) map[string]string {
	results := make(chan panelResult, len(calls))

	for _, call := range calls {
		go func(c panelCall) {
			text, err := c.provider.Generate(ctx, c.request)
			results <- panelResult{index: c.index, text: text, err: err}
		}(call)
	}

	texts := make([]string, len(calls))
	for range calls {
		r := <-results
		if r.err != nil {
			slog.Warn("Panelist call failed",
				"thread_id", state.ThreadID,
				"panelist", calls[r.index].name,
				"round", state.DebateRoundNum,
				"error", r.err)
			texts[r.index] = protocol.Placeholder(r.err)
			continue
		}
		texts[r.index] = cleanResponse(r.text)
	}

	responses := make(map[string]string, len(calls))
	for _, call := range calls {
		responses[call.name] = texts[call.index]
	}
	return responses
}

// analyzeRound runs the quality evaluator over the round's valid responses
// and emits the derived events. Evaluation is best-effort: any failure
// logs a warning and returns nil, leaving the round without quality data.
func (e *Engine) analyzeRound(ctx context.Context, state *core.DebateState, responses map[string]string, rec *eventRecorder) *core.RoundQuality {
	if e.evaluator == nil {
		return nil
	}

	valid := make(map[string]string, len(responses))
	for name, text := range responses {
		if core.IsValidResponse(text) {
			valid[name] = text
		}
	}
	if len(valid) == 0 {
		return nil
	}

	quality, err := e.evaluator.Evaluate(ctx, evaluator.Input{
		Topic:       state.Topic,
		RoundNumber: state.DebateRoundNum,
		Responses:   valid,
		Order:       state.PanelNames(),
		PrevClaims:  prevClaims(state),
	})
	if err != nil {
		slog.Warn("Round evaluation failed", "thread_id", state.ThreadID, "round", state.DebateRoundNum, "error", err)
		return nil
	}

	for _, name := range state.PanelNames() {
		if stance := quality.Stances[name]; stance != nil {
			rec.emit(events.TypeStanceExtracted, events.StanceExtractedData{
				Panelist: name,
				Round:    state.DebateRoundNum,
				Stance:   stance,
			})
		}
	}
	for _, concession := range quality.Concessions {
		rec.emit(events.TypeConcessionDetected, events.ConcessionDetectedData{Concession: concession})
	}
	for _, name := range state.PanelNames() {
		if resp := quality.Responsiveness[name]; resp != nil {
			rec.emit(events.TypeResponsivenessScore, events.ResponsivenessData{
				Panelist:       name,
				Round:          state.DebateRoundNum,
				Responsiveness: resp,
			})
		}
	}

	// Queryable side tables; the same data rides inside the state snapshot.
	if len(quality.Arguments) > 0 {
		if err := e.storage.SaveArgumentUnits(ctx, state.ThreadID, quality.Arguments); err != nil {
			slog.Warn("Failed to save argument units", "thread_id", state.ThreadID, "error", err)
		}
	}
	if len(quality.Stances) > 0 {
		if err := e.storage.SaveStances(ctx, state.ThreadID, state.DebateRoundNum, quality.Stances); err != nil {
			slog.Warn("Failed to save stances", "thread_id", state.ThreadID, "error", err)
		}
	}

	return quality
}

// prevClaims returns the claim units from the most recent round that has
// quality data, the same claim context the scorer rebuilds on resume.
func prevClaims(state *core.DebateState) []core.ArgumentUnit {
	for i := len(state.History) - 1; i >= 0; i-- {
		round := state.History[i]
		if round.Quality == nil {
			continue
		}
		var claims []core.ArgumentUnit
		for _, unit := range round.Quality.Arguments {
			if unit.Kind == core.ArgClaim {
				claims = append(claims, unit)
			}
		}
		return claims
	}
	return nil
}

// cleanResponse normalizes a successful model response. Empty output is a
// failure in disguise and becomes a placeholder.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "(Error: empty response)"
	}
	return text
}
