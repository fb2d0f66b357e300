// Package engine drives debates through their phase state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/consensus"
	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/evaluator"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/provider"
	"github.com/parleyhq/parley/internal/storage"
)

// ErrStepInProgress reports a concurrent step or resume on the same
// thread. Steps are serialized per thread; callers retry after the active
// step finishes.
var ErrStepInProgress = errors.New("a step is already in progress for this thread")

// Engine orchestrates debate sessions. One engine serves many threads;
// per-thread locks keep each thread's steps strictly sequential while
// different threads advance in parallel.
type Engine struct {
	storage   storage.Storage
	registry  *provider.Registry
	evaluator evaluator.Evaluator
	moderator *Moderator
	consensus *consensus.Detector
	sink      events.Sink

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	handlers map[core.Phase]stepFunc
}

// Options configures a new engine. Storage and Registry are required;
// Evaluator, Moderator and Sink are optional and degrade gracefully when
// absent (no quality analysis, no moderator consensus/summary, no events).
type Options struct {
	Storage   storage.Storage
	Registry  *provider.Registry
	Evaluator evaluator.Evaluator
	Moderator *Moderator
	Sink      events.Sink
}

// New creates a debate engine.
func New(opts Options) *Engine {
	sink := opts.Sink
	if sink == nil {
		sink = events.NullSink{}
	}

	// A nil *Moderator must become a nil interface, not a typed nil.
	var mod consensus.Moderator
	if opts.Moderator != nil {
		mod = opts.Moderator
	}

	e := &Engine{
		storage:   opts.Storage,
		registry:  opts.Registry,
		evaluator: opts.Evaluator,
		moderator: opts.Moderator,
		consensus: consensus.New(mod),
		sink:      sink,
		locks:     make(map[string]*sync.Mutex),
	}

	e.handlers = map[core.Phase]stepFunc{
		core.PhaseInit:       e.handleInit,
		core.PhaseDebate:     e.handleDebate,
		core.PhasePaused:     e.handlePaused,
		core.PhaseModeration: e.handleModeration,
		core.PhaseFinished:   e.handleFinished,
	}

	return e
}

// CreateDebate validates the configuration and persists a new debate in
// its initial phase. Validation failures here are configuration-fatal: no
// state is created.
func (e *Engine) CreateDebate(ctx context.Context, config core.NewDebateConfig) (*core.DebateState, error) {
	slog.Debug("Creating new debate", "topic", config.Topic, "panelists", len(config.Panel))

	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if err := core.ValidatePanel(config.Panel); err != nil {
		return nil, err
	}

	mode := config.DebateMode
	if mode == "" {
		mode = core.ModeAutonomous
	}
	if !core.ValidDebateMode(mode) {
		return nil, fmt.Errorf("invalid debate mode: %s", mode)
	}

	stanceMode := config.StanceMode
	if stanceMode == "" {
		stanceMode = core.StanceFree
	}
	if !core.ValidStanceMode(stanceMode) {
		return nil, fmt.Errorf("invalid stance mode: %s", stanceMode)
	}

	maxRounds := config.MaxRounds
	if maxRounds <= 0 {
		maxRounds = core.DefaultMaxRounds
	}

	// Every panelist's provider must exist and be reachable before any
	// state is created.
	for _, p := range config.Panel {
		prov, err := e.registry.Get(p.Provider)
		if err != nil {
			return nil, fmt.Errorf("invalid provider for panelist %s: %w", p.Name, err)
		}
		if !prov.Available() {
			return nil, fmt.Errorf("provider %s for panelist %s is not available", p.Provider, p.Name)
		}
	}

	if stanceMode == core.StanceAssigned {
		if err := protocol.ValidateAssignedRoles(config.Panel, config.AssignedRoles); err != nil {
			return nil, err
		}
	}

	scoring := true
	if config.ScoringEnabled != nil {
		scoring = *config.ScoringEnabled
	}

	now := time.Now()
	state := &core.DebateState{
		ThreadID:       core.NewThreadID(),
		Topic:          config.Topic,
		Phase:          core.PhaseInit,
		MaxRounds:      maxRounds,
		DebateMode:     mode,
		StanceMode:     stanceMode,
		ScoringEnabled: scoring,
		Panel:          config.Panel,
		AssignedRoles:  config.AssignedRoles,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := e.storage.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist debate: %w", err)
	}

	slog.Info("Debate created", "thread_id", state.ThreadID, "mode", mode, "stance_mode", stanceMode, "max_rounds", maxRounds)
	return state, nil
}

// GetDebate loads a debate by thread ID.
func (e *Engine) GetDebate(ctx context.Context, threadID string) (*core.DebateState, error) {
	return e.storage.LoadState(ctx, threadID)
}

// ListDebates returns stored debate summaries, newest first.
func (e *Engine) ListDebates(ctx context.Context, limit, offset int) ([]*core.DebateSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.storage.ListStates(ctx, limit, offset)
}

// DeleteDebate removes a debate and all its derived records.
func (e *Engine) DeleteDebate(ctx context.Context, threadID string) error {
	return e.storage.DeleteState(ctx, threadID)
}

// Events returns a thread's stored events after the given sequence
// number. Pass -1 for the full log.
func (e *Engine) Events(ctx context.Context, threadID string, afterSeq int64) ([]events.Event, error) {
	return e.storage.ListEvents(ctx, threadID, afterSeq)
}

// ArgumentUnits returns the stored argument units for a thread.
func (e *Engine) ArgumentUnits(ctx context.Context, threadID string) ([]core.ArgumentUnit, error) {
	return e.storage.ListArgumentUnits(ctx, threadID)
}

// Stances returns the stored stance history for a thread.
func (e *Engine) Stances(ctx context.Context, threadID string) ([]core.StanceRecord, error) {
	return e.storage.ListStances(ctx, threadID)
}

// Step advances a debate by exactly one phase transition. The state is
// mutated on a working copy and persisted once at the end, so observers
// never see a partial transition. Finished and paused debates are no-ops.
func (e *Engine) Step(ctx context.Context, threadID string) (*core.DebateState, error) {
	lock := e.threadLock(threadID)
	if !lock.TryLock() {
		return nil, ErrStepInProgress
	}
	defer lock.Unlock()

	state, err := e.storage.LoadState(ctx, threadID)
	if err != nil {
		return nil, err
	}

	handler, ok := e.handlers[state.Phase]
	if !ok {
		return nil, fmt.Errorf("unknown phase: %s", state.Phase)
	}

	rec := &eventRecorder{sink: e.sink, state: state}
	changed, err := handler(ctx, state, rec)
	if err != nil {
		return nil, err
	}
	if !changed {
		return state, nil
	}

	state.UpdatedAt = time.Now()
	if err := e.storage.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}

	e.flushEvents(ctx, threadID, rec)
	return state, nil
}

// Run advances a debate until it pauses or finishes.
func (e *Engine) Run(ctx context.Context, threadID string) (*core.DebateState, error) {
	for {
		state, err := e.Step(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if state.Phase == core.PhaseFinished || state.Phase == core.PhasePaused {
			return state, nil
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}
	}
}

// Resume returns a paused debate to the debate phase, carrying optional
// human input into the next round. Resuming a debate that is not paused
// is an idempotent no-op returning the current state.
func (e *Engine) Resume(ctx context.Context, threadID string, input core.ResumeInput) (*core.DebateState, error) {
	lock := e.threadLock(threadID)
	if !lock.TryLock() {
		return nil, ErrStepInProgress
	}
	defer lock.Unlock()

	state, err := e.storage.LoadState(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if state.Phase != core.PhasePaused {
		slog.Debug("Resume on non-paused debate ignored", "thread_id", threadID, "phase", state.Phase)
		return state, nil
	}

	state.Phase = core.PhaseDebate
	state.PendingUserMessage = input.Message
	state.TaggedPanelists = core.ParseMentions(input.Message, state.PanelNames())

	votes := make(map[string]core.VoteKind)
	for _, name := range input.CompellingVotes {
		if state.PanelistByName(name) != nil {
			votes[name] = core.VoteCompelling
		}
	}
	for _, name := range input.WeakVotes {
		if state.PanelistByName(name) != nil {
			votes[name] = core.VoteWeak
		}
	}
	if len(votes) > 0 {
		state.PendingVotes = votes
	}

	rec := &eventRecorder{sink: e.sink, state: state}
	rec.emit(events.TypeStatus, events.StatusData{
		Phase:   state.Phase,
		Round:   state.DebateRoundNum,
		Message: "debate resumed",
	})

	state.UpdatedAt = time.Now()
	if err := e.storage.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}

	e.flushEvents(ctx, threadID, rec)
	slog.Info("Debate resumed", "thread_id", threadID, "message", input.Message != "", "votes", len(votes))
	return state, nil
}

// threadLock returns the step lock for a thread, creating it on first use.
func (e *Engine) threadLock(threadID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks[threadID] == nil {
		e.locks[threadID] = &sync.Mutex{}
	}
	return e.locks[threadID]
}

// flushEvents appends the step's event batch to the stored log.
// Best-effort: a failed append loses replay history but never fails the
// step that produced it.
func (e *Engine) flushEvents(ctx context.Context, threadID string, rec *eventRecorder) {
	if len(rec.batch) == 0 {
		return
	}
	if err := e.storage.AppendEvents(ctx, threadID, rec.batch); err != nil {
		slog.Warn("Failed to append events", "thread_id", threadID, "count", len(rec.batch), "error", err)
	}
}

// eventRecorder assigns sequence numbers from the state, delivers events
// to the live sink immediately, and batches them for the stored log.
type eventRecorder struct {
	sink  events.Sink
	state *core.DebateState
	batch []events.Event
}

func (r *eventRecorder) emit(typ events.Type, data any) {
	ev := events.Event{
		Seq:       r.state.EventSeq,
		ThreadID:  r.state.ThreadID,
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	}
	r.state.EventSeq++
	r.batch = append(r.batch, ev)
	r.sink.Emit(ev)
}
