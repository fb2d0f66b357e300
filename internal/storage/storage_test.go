package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

func testState(threadID, topic string, createdAt time.Time) *core.DebateState {
	return &core.DebateState{
		ThreadID:       threadID,
		Topic:          topic,
		Phase:          core.PhaseDebate,
		DebateRoundNum: 1,
		MaxRounds:      3,
		DebateMode:     core.ModeAutonomous,
		StanceMode:     core.StanceFree,
		ScoringEnabled: true,
		Panel: []core.Panelist{
			{Name: "Ada", Provider: "claude"},
			{Name: "Bob", Provider: "gemini"},
		},
		History: []*core.DebateRound{
			{
				RoundNumber: 0,
				PanelResponses: map[string]string{
					"Ada": "Opening for.",
					"Bob": "Opening against.",
				},
			},
		},
		EventSeq:  4,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// runStorageTests exercises the full Storage contract against one backend.
// Subtests run in order and share state.
func runStorageTests(t *testing.T, store Storage) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	t.Run("SaveAndLoadState", func(t *testing.T) {
		state := testState("thread-1", "First topic", base)
		if err := store.SaveState(ctx, state); err != nil {
			t.Fatalf("failed to save state: %v", err)
		}

		got, err := store.LoadState(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to load state: %v", err)
		}
		if got.Topic != "First topic" {
			t.Errorf("Topic mismatch: got %s", got.Topic)
		}
		if got.Phase != core.PhaseDebate {
			t.Errorf("Phase mismatch: got %s", got.Phase)
		}
		if len(got.Panel) != 2 || got.Panel[0].Name != "Ada" {
			t.Errorf("Panel mismatch: %+v", got.Panel)
		}
		if len(got.History) != 1 || got.History[0].PanelResponses["Bob"] != "Opening against." {
			t.Errorf("History mismatch: %+v", got.History)
		}
		if got.EventSeq != 4 {
			t.Errorf("EventSeq mismatch: got %d, want 4", got.EventSeq)
		}
	})

	t.Run("SaveIsUpsert", func(t *testing.T) {
		state, err := store.LoadState(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to load state: %v", err)
		}
		state.Phase = core.PhasePaused
		state.DebateRoundNum = 2
		if err := store.SaveState(ctx, state); err != nil {
			t.Fatalf("failed to re-save state: %v", err)
		}

		got, err := store.LoadState(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to reload state: %v", err)
		}
		if got.Phase != core.PhasePaused || got.DebateRoundNum != 2 {
			t.Errorf("update not applied: phase=%s round=%d", got.Phase, got.DebateRoundNum)
		}
	})

	t.Run("LoadMissingState", func(t *testing.T) {
		_, err := store.LoadState(ctx, "no-such-thread")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListStatesNewestFirst", func(t *testing.T) {
		if err := store.SaveState(ctx, testState("thread-2", "Second topic", base.Add(10*time.Minute))); err != nil {
			t.Fatalf("failed to save state: %v", err)
		}
		if err := store.SaveState(ctx, testState("thread-3", "Third topic", base.Add(20*time.Minute))); err != nil {
			t.Fatalf("failed to save state: %v", err)
		}

		summaries, err := store.ListStates(ctx, 10, 0)
		if err != nil {
			t.Fatalf("failed to list states: %v", err)
		}
		if len(summaries) != 3 {
			t.Fatalf("wrong number of summaries: got %d, want 3", len(summaries))
		}
		if summaries[0].ThreadID != "thread-3" || summaries[2].ThreadID != "thread-1" {
			t.Errorf("wrong order: %s, %s, %s", summaries[0].ThreadID, summaries[1].ThreadID, summaries[2].ThreadID)
		}
		if summaries[2].PanelSize != 2 {
			t.Errorf("wrong panel size: got %d, want 2", summaries[2].PanelSize)
		}
	})

	t.Run("ListStatesPagination", func(t *testing.T) {
		page, err := store.ListStates(ctx, 2, 0)
		if err != nil {
			t.Fatalf("failed to list states: %v", err)
		}
		if len(page) != 2 {
			t.Errorf("first page: got %d, want 2", len(page))
		}

		rest, err := store.ListStates(ctx, 10, 2)
		if err != nil {
			t.Fatalf("failed to list states: %v", err)
		}
		if len(rest) != 1 || rest[0].ThreadID != "thread-1" {
			t.Errorf("second page wrong: %+v", rest)
		}
	})

	t.Run("AppendAndListEvents", func(t *testing.T) {
		now := time.Now()
		evs := []events.Event{
			{Seq: 1, ThreadID: "thread-1", Type: events.TypeStatus, Data: events.StatusData{Phase: core.PhaseDebate}, Timestamp: now},
			{Seq: 2, ThreadID: "thread-1", Type: events.TypePanelistResponse, Data: events.PanelistResponseData{Panelist: "Ada", Response: "hi"}, Timestamp: now},
			{Seq: 3, ThreadID: "thread-1", Type: events.TypeDone, Timestamp: now},
		}
		if err := store.AppendEvents(ctx, "thread-1", evs); err != nil {
			t.Fatalf("failed to append events: %v", err)
		}

		all, err := store.ListEvents(ctx, "thread-1", 0)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("wrong number of events: got %d, want 3", len(all))
		}
		if all[0].Seq != 1 || all[2].Seq != 3 {
			t.Errorf("events out of order: %d..%d", all[0].Seq, all[2].Seq)
		}
		if all[1].Type != events.TypePanelistResponse || all[1].Data == nil {
			t.Errorf("event payload lost: %+v", all[1])
		}
		if all[2].Data != nil {
			t.Errorf("nil payload should stay nil, got %+v", all[2].Data)
		}

		tail, err := store.ListEvents(ctx, "thread-1", 2)
		if err != nil {
			t.Fatalf("failed to list events after seq: %v", err)
		}
		if len(tail) != 1 || tail[0].Seq != 3 {
			t.Errorf("afterSeq filter wrong: %+v", tail)
		}
	})

	t.Run("ArgumentUnits", func(t *testing.T) {
		units := []core.ArgumentUnit{
			{ID: "unit-1", Panelist: "Ada", Kind: core.ArgClaim, Text: "It scales.", Round: 0},
			{ID: "unit-2", Panelist: "Bob", Kind: core.ArgChallenge, Text: "Prove it.", Round: 0},
			{ID: "unit-3", Panelist: "Ada", Kind: core.ArgEvidence, Text: "Benchmarks attached.", Round: 1},
		}
		if err := store.SaveArgumentUnits(ctx, "thread-1", units); err != nil {
			t.Fatalf("failed to save units: %v", err)
		}

		got, err := store.ListArgumentUnits(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to list units: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("wrong number of units: got %d, want 3", len(got))
		}
		if got[0].ID != "unit-1" || got[2].ID != "unit-3" {
			t.Errorf("units out of order: %s..%s", got[0].ID, got[2].ID)
		}
		if got[1].Kind != core.ArgChallenge {
			t.Errorf("wrong kind: got %s", got[1].Kind)
		}
	})

	t.Run("Stances", func(t *testing.T) {
		round0 := map[string]*core.Stance{
			"Ada":   {Label: core.StanceFor, Confidence: 0.8, CoreClaim: "It scales", EvidenceStrength: 0.5},
			"Bob":   {Label: core.StanceAgainst, Confidence: 0.7, EvidenceStrength: 0.4},
			"Ghost": nil,
		}
		if err := store.SaveStances(ctx, "thread-1", 0, round0); err != nil {
			t.Fatalf("failed to save stances: %v", err)
		}
		round1 := map[string]*core.Stance{
			"Ada": {Label: core.StanceConditional, Confidence: 0.6, EvidenceStrength: 0.3},
		}
		if err := store.SaveStances(ctx, "thread-1", 1, round1); err != nil {
			t.Fatalf("failed to save stances: %v", err)
		}

		got, err := store.ListStances(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to list stances: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("nil stance should be skipped: got %d records, want 3", len(got))
		}
		if got[0].Round != 0 || got[0].Panelist != "Ada" || got[0].Stance.Label != core.StanceFor {
			t.Errorf("first record wrong: %+v", got[0])
		}
		if got[0].Stance.CoreClaim != "It scales" {
			t.Errorf("core claim lost: %+v", got[0].Stance)
		}
		if got[1].Stance.CoreClaim != "" {
			t.Errorf("empty core claim should round-trip empty: %+v", got[1].Stance)
		}
		if got[2].Round != 1 || got[2].Stance.Label != core.StanceConditional {
			t.Errorf("last record wrong: %+v", got[2])
		}
	})

	t.Run("DeleteStateCascades", func(t *testing.T) {
		if err := store.DeleteState(ctx, "thread-1"); err != nil {
			t.Fatalf("failed to delete state: %v", err)
		}

		if _, err := store.LoadState(ctx, "thread-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("state should be gone, got %v", err)
		}
		evs, err := store.ListEvents(ctx, "thread-1", 0)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(evs) != 0 {
			t.Errorf("events should be gone, got %d", len(evs))
		}
		units, err := store.ListArgumentUnits(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to list units: %v", err)
		}
		if len(units) != 0 {
			t.Errorf("units should be gone, got %d", len(units))
		}
		stances, err := store.ListStances(ctx, "thread-1")
		if err != nil {
			t.Fatalf("failed to list stances: %v", err)
		}
		if len(stances) != 0 {
			t.Errorf("stances should be gone, got %d", len(stances))
		}
	})

	t.Run("DeleteMissingState", func(t *testing.T) {
		if err := store.DeleteState(ctx, "no-such-thread"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
