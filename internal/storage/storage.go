// Package storage provides persistence for debate state and event logs.
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

// ErrNotFound reports that a thread does not exist in storage. Callers
// distinguish this from corruption: a missing thread is a client error, a
// corrupted one is an operational one.
var ErrNotFound = errors.New("debate not found")

// ErrCorrupt reports that a thread exists but its stored state cannot be
// decoded.
var ErrCorrupt = errors.New("debate state corrupted")

// Storage defines the interface for debate persistence. The engine saves
// the full state after every step, so any backend must make SaveState an
// atomic upsert.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize(ctx context.Context) error

	// Close closes the storage connection.
	Close() error

	// State operations
	SaveState(ctx context.Context, state *core.DebateState) error
	LoadState(ctx context.Context, threadID string) (*core.DebateState, error)
	DeleteState(ctx context.Context, threadID string) error
	ListStates(ctx context.Context, limit, offset int) ([]*core.DebateSummary, error)

	// Event log operations
	AppendEvents(ctx context.Context, threadID string, evs []events.Event) error
	ListEvents(ctx context.Context, threadID string, afterSeq int64) ([]events.Event, error)

	// Quality analysis operations. Written best-effort after evaluation;
	// the same data also rides inside the state snapshot, these tables
	// exist for querying across rounds without decoding states.
	SaveArgumentUnits(ctx context.Context, threadID string, units []core.ArgumentUnit) error
	ListArgumentUnits(ctx context.Context, threadID string) ([]core.ArgumentUnit, error)
	SaveStances(ctx context.Context, threadID string, round int, stances map[string]*core.Stance) error
	ListStances(ctx context.Context, threadID string) ([]core.StanceRecord, error)
}

// DefaultDBPath returns the default sqlite database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley.db"
	}
	return filepath.Join(home, ".parley", "parley.db")
}
