package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()

	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}

	runStorageTests(t, store)
}

func TestMemoryStorageCopySemantics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	if err := store.SaveState(ctx, testState("copy-1", "Original topic", time.Now())); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	// Mutating a loaded copy must not leak into storage.
	loaded, err := store.LoadState(ctx, "copy-1")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	loaded.Topic = "Mutated topic"
	loaded.History[0].PanelResponses["Ada"] = "Tampered"

	fresh, err := store.LoadState(ctx, "copy-1")
	if err != nil {
		t.Fatalf("failed to reload state: %v", err)
	}
	if fresh.Topic != "Original topic" {
		t.Errorf("stored topic mutated: %s", fresh.Topic)
	}
	if fresh.History[0].PanelResponses["Ada"] != "Opening for." {
		t.Errorf("stored history mutated: %s", fresh.History[0].PanelResponses["Ada"])
	}
}
