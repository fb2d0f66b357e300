package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/protocol"
)

// stepFunc handles one phase. It mutates the state in place and reports
// whether anything changed; unchanged states are not persisted, which is
// what makes paused and finished steps safe no-ops.
type stepFunc func(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error)

// handleInit performs one-time setup and enters the debate phase.
// Adversarial debates get their deterministic role split here unless roles
// were already provided.
func (e *Engine) handleInit(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error) {
	if state.StanceMode == core.StanceAdversarial && len(state.AssignedRoles) == 0 {
		state.AssignedRoles = protocol.AssignAdversarialRoles(state.Panel, state.Topic)
		slog.Debug("Assigned adversarial roles", "thread_id", state.ThreadID, "panelists", len(state.AssignedRoles))
	}

	state.Phase = core.PhaseDebate
	rec.emit(events.TypeStatus, events.StatusData{
		Phase:   state.Phase,
		Round:   state.DebateRoundNum,
		Message: "debate started",
	})

	slog.Info("Debate initialized", "thread_id", state.ThreadID, "topic", state.Topic)
	return true, nil
}

// handleDebate executes one full round and decides where the debate goes
// next. The round record is appended before any transition decision so the
// round count invariant holds on every exit path.
func (e *Engine) handleDebate(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error) {
	rec.emit(events.TypeStatus, events.StatusData{
		Phase:   state.Phase,
		Round:   state.DebateRoundNum,
		Message: fmt.Sprintf("running round %d", state.DebateRoundNum+1),
	})

	outcome, err := e.runRound(ctx, state, rec)
	if err != nil {
		return false, err
	}

	round := &core.DebateRound{
		RoundNumber:    state.DebateRoundNum,
		PanelResponses: outcome.responses,
		UserMessage:    state.PendingUserMessage,
		Quality:        outcome.quality,
		Scores:         outcome.scores,
	}

	state.History = append(state.History, round)
	state.DebateRoundNum = len(state.History)
	state.PanelResponses = outcome.responses

	// Human input is consumed by exactly one round.
	state.PendingUserMessage = ""
	state.PendingVotes = nil
	state.TaggedPanelists = nil

	if !core.HasValidResponses(outcome.responses) {
		state.LastError = "all panelists failed to respond"
		state.Phase = core.PhaseFinished

		rec.emit(events.TypeDebateRound, events.DebateRoundData{Round: round})
		rec.emit(events.TypeError, events.ErrorData{Message: state.LastError})
		rec.emit(events.TypeDone, nil)

		slog.Error("Round produced no valid responses", "thread_id", state.ThreadID, "round", round.RoundNumber)
		return true, nil
	}

	round.Consensus = outcome.decision.Reached
	state.ConsensusReached = outcome.decision.Reached

	rec.emit(events.TypeDebateRound, events.DebateRoundData{Round: round})

	switch {
	case outcome.decision.Reached || state.DebateRoundNum >= state.MaxRounds:
		state.Phase = core.PhaseModeration
		rec.emit(events.TypeStatus, events.StatusData{
			Phase:   state.Phase,
			Round:   state.DebateRoundNum,
			Message: moderationReason(outcome.decision.Reached),
		})
	case state.DebateMode == core.ModeSupervised || state.DebateMode == core.ModeParticipatory:
		state.Phase = core.PhasePaused
		rec.emit(events.TypeDebatePaused, events.DebatePausedData{
			Round:  state.DebateRoundNum,
			Reason: "awaiting human input",
		})
	}

	slog.Info("Round completed",
		"thread_id", state.ThreadID,
		"round", round.RoundNumber,
		"consensus", outcome.decision.Reached,
		"method", outcome.decision.Method,
		"next_phase", state.Phase)
	return true, nil
}

// handlePaused waits for an external resume. Stepping a paused debate
// changes nothing.
func (e *Engine) handlePaused(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error) {
	return false, nil
}

// handleModeration synthesizes the closing summary and finishes the
// debate. A summary failure degrades to a placeholder; it never blocks
// termination.
func (e *Engine) handleModeration(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error) {
	rec.emit(events.TypeStatus, events.StatusData{
		Phase:   state.Phase,
		Round:   state.DebateRoundNum,
		Message: "synthesizing summary",
	})

	state.Summary = e.summarize(ctx, state)
	state.Phase = core.PhaseFinished

	rec.emit(events.TypeResult, events.ResultData{
		Summary:          state.Summary,
		ConsensusReached: state.ConsensusReached,
		Rounds:           state.DebateRoundNum,
	})
	rec.emit(events.TypeDone, nil)

	slog.Info("Debate finished", "thread_id", state.ThreadID, "rounds", state.DebateRoundNum, "consensus", state.ConsensusReached)
	return true, nil
}

// handleFinished is the terminal no-op.
func (e *Engine) handleFinished(ctx context.Context, state *core.DebateState, rec *eventRecorder) (bool, error) {
	return false, nil
}

func moderationReason(consensus bool) string {
	if consensus {
		return "consensus reached, moving to moderation"
	}
	return "round limit reached, moving to moderation"
}
